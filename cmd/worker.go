package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

const defaultReconcileInterval = 5 * time.Minute

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that periodically recomputes the sales total of open register entries`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	interval := cfg.Worker.ReconcileInterval
	if interval <= 0 {
		interval = defaultReconcileInterval
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runReconcileScheduler(ctx, a.services.Registers, interval)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}

// runReconcileScheduler refreshes open register totals every interval until
// ctx is done
func runReconcileScheduler(ctx context.Context, registers service.RegisterService, interval time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			reconcileRegisters(ctx, registers)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	log.Info().Dur("interval", interval).Msg("Starting register reconciliation job")
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}

func reconcileRegisters(ctx context.Context, registers service.RegisterService) {
	refreshed, err := registers.ReconcileOpen(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reconcile open registers")
		return
	}
	log.Info().Int("registers", refreshed).Msg("Reconciled open registers")
}
