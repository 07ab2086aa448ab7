package service

import (
	"sync"
	"time"
)

// claimSet marca mensajes de moderación ya tomados por un approve/deny para que
// un evento duplicado no dispare la transición dos veces.
type claimSet struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newClaimSet() *claimSet {
	return &claimSet{m: map[string]time.Time{}}
}

func (c *claimSet) claim(messageID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[messageID]; ok {
		return false
	}
	c.m[messageID] = now
	return true
}

func (c *claimSet) release(messageID string) {
	c.mu.Lock()
	delete(c.m, messageID)
	c.mu.Unlock()
}

// prune borra los claims anteriores a before.
func (c *claimSet) prune(before time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, at := range c.m {
		if at.Before(before) {
			delete(c.m, id)
			n++
		}
	}
	return n
}
