package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"Xuunu.homeostasis/internal/controller"
	"Xuunu.homeostasis/internal/middleware"
	"Xuunu.homeostasis/internal/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  handleServe,
}

func handleServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := a.handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server is running at: http://localhost:%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handler builds the routed, CORS-wrapped HTTP handler.
func (a *app) handler() (http.Handler, error) {
	var auth func(http.Handler) http.Handler
	if a.cfg.AuthEnabled() {
		jwtAuth, err := middleware.NewAuth0(a.cfg.Auth0Issuer, a.cfg.Auth0Audience)
		if err != nil {
			return nil, err
		}
		auth = jwtAuth.Handler
		log.Printf("Auth0 token validation enabled for issuer %s", a.cfg.Auth0Issuer)
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router,
		controller.NewSampleController(a.samples, a.cfg.RequestTimeout),
		controller.NewHomeostasisController(a.homeostasis, a.cfg.RequestTimeout),
		auth,
	)

	c := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	return c.Handler(router), nil
}
