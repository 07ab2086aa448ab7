package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Cooldown es el dueño único de cooldown_till. Toda lectura/escritura pasa por
// el mutex y cada mutación se persiste en el StateStore.
type Cooldown struct {
	mu    sync.Mutex
	till  *time.Time
	store StateStore
	log   logrus.FieldLogger
}

func NewCooldown(store StateStore, log logrus.FieldLogger) *Cooldown {
	return &Cooldown{store: store, log: log}
}

// Restore carga el estado guardado. Cualquier error deja el cooldown vacío.
func (c *Cooldown) Restore(ctx context.Context) {
	till, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("no se pudo leer el estado, se arranca sin cooldown")
		till = nil
	}

	c.mu.Lock()
	c.till = till
	c.mu.Unlock()

	if till != nil {
		c.log.WithField("cooldown_till", till.Format(time.RFC3339)).Info("cooldown restaurado")
	}
}

// Active indica si el cooldown sigue vigente en now. Un cooldown vencido cuenta
// como ausente aunque el poller todavía no lo haya limpiado.
func (c *Cooldown) Active(now time.Time) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.till == nil || !now.Before(*c.till) {
		return time.Time{}, false
	}
	return *c.till, true
}

// Start fija cooldown_till = now + d y lo persiste. Si el guardado falla el
// valor igual aplica en memoria y se devuelve el error para que se loguee.
func (c *Cooldown) Start(ctx context.Context, now time.Time, d time.Duration) (time.Time, error) {
	till := now.Add(d)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.till = &till
	return till, c.save(ctx)
}

// ClearIfElapsed limpia el cooldown cuando now >= cooldown_till. Devuelve true
// solo para la llamada que efectivamente lo limpió.
func (c *Cooldown) ClearIfElapsed(ctx context.Context, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.till == nil || now.Before(*c.till) {
		return false, nil
	}
	c.till = nil
	return true, c.save(ctx)
}

// Clear limpia el cooldown sin mirar el reloj (reset de admins).
func (c *Cooldown) Clear(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.till == nil {
		return false, nil
	}
	c.till = nil
	return true, c.save(ctx)
}

// Till devuelve el valor crudo, vencido o no.
func (c *Cooldown) Till() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.till == nil {
		return nil
	}
	t := *c.till
	return &t
}

// se llama con c.mu tomado
func (c *Cooldown) save(ctx context.Context) error {
	var till *time.Time
	if c.till != nil {
		t := *c.till
		till = &t
	}
	if err := c.store.Save(ctx, till); err != nil {
		c.log.WithError(err).Warn("no se pudo persistir el cooldown")
		return err
	}
	return nil
}
