package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Migrate the database and serve the point of sale HTTP API until interrupted`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if err := a.migrate(); err != nil {
		return err
	}

	server := api.NewServer(cfg.Server, api.Dependencies{
		Services:     a.services,
		Metrics:      a.metrics,
		NewRelic:     a.newRelic,
		HealthChecks: a.healthChecks(),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
		return err
	}

	log.Info().Msg("API server stopped")
	return nil
}
