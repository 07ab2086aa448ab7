package httpstatus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/app/service"
)

// StatusSource es lo que el server necesita del workflow.
type StatusSource interface {
	Status() service.StatusReport
}

// Body es la respuesta de /cooldown (la usa también el Lambda de status).
type Body struct {
	Open     bool    `json:"open"`
	Cooldown *string `json:"cooldown"`
}

func NewBody(open bool, till *time.Time) Body {
	b := Body{Open: open}
	if !open && till != nil {
		s := till.UTC().Format(time.RFC3339)
		b.Cooldown = &s
	}
	return b
}

type Server struct {
	src StatusSource
	mux *http.ServeMux
	log logrus.FieldLogger
}

func New(src StatusSource, log logrus.FieldLogger) *Server {
	s := &Server{src: src, mux: http.NewServeMux(), log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/cooldown", s.handleCooldown)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st := s.src.Status()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewBody(st.Open, st.Till)); err != nil {
		s.log.WithError(err).Warn("status: encode")
	}
}

// Start escucha en addr hasta que se cancela ctx. addr vacío = deshabilitado.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	s.log.WithField("addr", addr).Info("status server escuchando")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
