package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"calcsync/src/auth"
	"calcsync/src/handler"
	"calcsync/src/notify"
	"calcsync/src/repository"
	"calcsync/src/store"
)

// Dependencies carries the collaborators the HTTP surface is built over.
// Users and APIKeys are nil when the remote side is disabled; the related
// routes are simply not mounted then.
type Dependencies struct {
	Store   *store.InputsStore
	Hub     *notify.Hub
	Users   *repository.GormUserRepository
	APIKeys *repository.GormUserAPIKeyRepository
}

func StartServer(port string, deps Dependencies) {
	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/api", func(r chi.Router) {
		if deps.Users != nil {
			// The middleware passes requests without a token through, so the
			// login route can live under it.
			r.Use(auth.Middleware(deps.Users))
			r.Post("/login", handler.LoginHandler(deps.Users, deps.Store))
		}

		r.Get("/inputs", handler.GetInputsHandler(deps.Store))
		r.Patch("/inputs", handler.SaveInputsHandler(deps.Store))
		r.Get("/ws", deps.Hub.ServeWS())

		if deps.APIKeys != nil {
			r.Get("/apikeys", handler.ListAPIKeysHandler(deps.APIKeys))
			r.Post("/apikeys", handler.CreateAPIKeyHandler(deps.APIKeys))
		}
	})

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}

	// Let in-flight remote writes land before exiting.
	deps.Store.Flush()
}
