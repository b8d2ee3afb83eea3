package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/handlers"
	"hav/internal/handlers/account"
	"hav/internal/handlers/auth"
	"hav/internal/handlers/room"
	"hav/internal/ledger"
	"hav/internal/middleware"
	"hav/internal/ws"
)

type Server struct {
	Addr      string
	Ledger    *ledger.Ledger
	Instance  ledger.Address
	Accounts  accounts.Store
	Hub       *ws.Hub
	JWTSecret string
	JWTTTLHrs int
	Log       *logrus.Logger
}

func NewServer(addr string, l *ledger.Ledger, instance ledger.Address, store accounts.Store, hub *ws.Hub, jwtSecret string, jwtTTL int, log *logrus.Logger) *Server {
	return &Server{
		Addr:      addr,
		Ledger:    l,
		Instance:  instance,
		Accounts:  store,
		Hub:       hub,
		JWTSecret: jwtSecret,
		JWTTTLHrs: jwtTTL,
		Log:       log,
	}
}

func HandlerFunc(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

// Router builds the call surface of the ledger.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(logger.Logger("router", s.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "HAV room ledger at %s\n", s.Instance)
	})
	r.Get("/health", handlers.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/token", HandlerFunc(&auth.TokenHandler{
			Accounts:  s.Accounts,
			JWTSecret: s.JWTSecret,
			JWTTTLHrs: s.JWTTTLHrs,
			Log:       s.Log,
		}))
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", HandlerFunc(&account.ListHandler{Accounts: s.Accounts, Log: s.Log}))
		r.With(middleware.AuthJWT(s.JWTSecret)).Get("/me", HandlerFunc(&account.MeHandler{Accounts: s.Accounts, Log: s.Log}))
	})

	r.Route("/room", func(r chi.Router) {
		r.Get("/", HandlerFunc(&room.StateHandler{Ledger: s.Ledger}))
		r.Get("/owner", HandlerFunc(&room.OwnerHandler{Ledger: s.Ledger, Log: s.Log}))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(s.JWTSecret))
			r.Post("/book", HandlerFunc(&room.BookHandler{Ledger: s.Ledger, Accounts: s.Accounts, Log: s.Log}))
			r.Post("/book-for", HandlerFunc(&room.BookForHandler{Ledger: s.Ledger, Accounts: s.Accounts, Log: s.Log}))
			r.Post("/approve", HandlerFunc(&room.DelegateHandler{Ledger: s.Ledger, Log: s.Log}))
			r.Post("/revoke", HandlerFunc(&room.DelegateHandler{Ledger: s.Ledger, Revoke: true, Log: s.Log}))
			r.Post("/leave", HandlerFunc(&room.LeaveHandler{Ledger: s.Ledger, Log: s.Log}))
			r.Post("/admit", HandlerFunc(&room.AdmitHandler{Ledger: s.Ledger, Log: s.Log}))
		})
	})

	r.Get("/ws", HandlerFunc(&handlers.EventsHandler{Hub: s.Hub, Log: s.Log}))
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", s.Addr).Info("server running")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
