package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/geo"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/output"
	"github.com/chrisdamba/dispatchsim/internal/repositories/memory"
	"github.com/chrisdamba/dispatchsim/internal/repositories/postgres"
	"github.com/chrisdamba/dispatchsim/internal/simulator"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one day and write the dispatched deliveries",
	RunE:  runDay,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("source", "file", "where the day comes from (file or postgres)")
	runCmd.Flags().String("day-file", "day.json", "day file to replay when source is file")
	runCmd.Flags().String("output", "console", "destination (console, json, csv, parquet, kafka, postgres)")
	runCmd.Flags().String("output-path", "output", "base directory for file destinations")
	runCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	runCmd.Flags().Bool("no-taxi", false, "disable the per-shop taxi fallback")

	bindCommandFlags(runCmd, map[string]string{
		"source":             "source",
		"day_file":           "day-file",
		"output.destination": "output",
		"output.path":        "output-path",
		"kafka.broker_list":  "kafka-broker-list",
		"metrics_addr":       "metrics-addr",
	})
}

func runDay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if noTaxi, _ := cmd.Flags().GetBool("no-taxi"); noTaxi {
		cfg.Simulation.TaxiEnabled = false
	}
	log := logger.New("run")

	day, history, release, err := loadDay(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}
	defer release()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Infof("serving metrics on %s", cfg.MetricsAddr)
	}

	dest, err := output.NewDestination(ctx, cfg, logger.New("output"))
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	summary, err := simulateDay(ctx, cfg, day, history, dest, log, os.Stderr)
	if cerr := dest.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	if err != nil {
		return err
	}

	log.Infof("delivered %d of %d orders (%d late) in %d bundles, %d by taxi, mean cost per order %.2f",
		summary.Delivered, summary.Orders, summary.Late, summary.Bundles, summary.TaxiBundles, summary.MeanOrderCost)
	for _, v := range summary.ByVehicle {
		log.Debugw("vehicle totals", map[string]any{
			"vehicle":  v.Vehicle,
			"bundles":  v.Bundles,
			"orders":   v.Orders,
			"cost":     v.Cost,
			"distance": v.Distance,
		})
	}
	return nil
}

// loadDay reads the day and its cost history from the configured source.
// release frees whatever the source holds open.
func loadDay(ctx context.Context, cfg *models.Config) (*models.DayData, simulator.CostHistory, func(), error) {
	switch cfg.Source {
	case "", "file":
		day, err := models.LoadDayData(cfg.DayFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return day, memory.NewStatisticsRepository(day.History), func() {}, nil
	case "postgres":
		if cfg.Simulation.Date.IsZero() {
			return nil, nil, nil, fmt.Errorf("simulation.date is required when loading from postgres")
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		day, err := postgres.NewDayRepository(pool).LoadDay(ctx, cfg.Simulation.Date)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return day, postgres.NewStatisticsRepository(pool), pool.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// simulateDay runs the dispatcher over day and writes every executed bundle
// to dest under a fresh run ID.
func simulateDay(ctx context.Context, cfg *models.Config, day *models.DayData, history simulator.CostHistory, dest output.OutputDestination, log logger.Logger, progress io.Writer) (simulator.Summary, error) {
	if cfg.Simulation.Date.IsZero() {
		cfg.Simulation.Date = day.Date
	}

	matrix, err := geo.NewMatrix(ctx, geo.Haversine{Allowance: cfg.Simulation.DistanceAllowance}, geo.DayLocations(day), cfg.Simulation.GeoWorkers)
	if err != nil {
		return simulator.Summary{}, fmt.Errorf("distance matrix: %w", err)
	}
	log.Infof("distance matrix ready: %d points", matrix.Len())

	bar := progressbar.NewOptions64(int64(len(day.Orders)),
		progressbar.OptionSetDescription("delivering orders"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	hook := func(ev *models.Event) {
		if ev.Type != models.EventOrderDelivered {
			return
		}
		if b, ok := ev.Data.(*models.DeliveryBundle); ok {
			_ = bar.Add(b.Size())
		}
	}

	d := simulator.NewDispatcher(cfg, matrix, simulator.WithLogger(log), simulator.WithEventHook(hook))
	status := d.RunDay(ctx, day.Shops, day.Couriers, day.Orders, history)
	_ = bar.Finish()
	if status != simulator.StatusOK {
		if d.Err() != nil {
			return simulator.Summary{}, fmt.Errorf("day ended with status %s: %w", status, d.Err())
		}
		return simulator.Summary{}, fmt.Errorf("day ended with status %s", status)
	}

	runID := uuid.NewString()
	if err := output.WriteDeliveries(dest, runID, d.ExecutedDeliveries()); err != nil {
		return simulator.Summary{}, err
	}
	log.Infof("run %s: %d events processed, %d deliveries written", runID, d.Processed(), len(d.ExecutedDeliveries()))
	return d.Summary(), nil
}
