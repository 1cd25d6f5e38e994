package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/cloudwriter"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/repositories/postgres"
)

// NewDestination builds the destination named by cfg.Output.Destination.
func NewDestination(ctx context.Context, cfg *models.Config, log logger.Logger) (OutputDestination, error) {
	out := cfg.Output
	switch out.Destination {
	case "", "console":
		return NewConsoleOutput(nil), nil
	case "json":
		return NewJSONOutput(out.Path, out.Folder), nil
	case "csv":
		return NewCSVOutput(out.Path, out.Folder), nil
	case "parquet":
		if out.Storage == "" || out.Storage == "local" {
			return NewParquetOutput(out.Path, out.Folder, nil, "", log), nil
		}
		if cfg.CloudStorage.Provider != "s3" {
			return nil, fmt.Errorf("unsupported cloud storage provider: %q", cfg.CloudStorage.Provider)
		}
		factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 writer factory: %w", err)
		}
		return NewParquetOutput(out.Path, out.Folder, factory, cfg.CloudStorage.BucketName, log), nil
	case "kafka":
		return NewKafkaOutput(cfg.Kafka, log)
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresOutput(ctx, postgres.NewDeliveryRepository(pool), pool.Close), nil
	}
	return nil, fmt.Errorf("unknown output destination: %q", out.Destination)
}

// WriteDeliveries publishes one record per executed bundle.
func WriteDeliveries(dest OutputDestination, runID string, bundles []*models.DeliveryBundle) error {
	for _, b := range bundles {
		msg, err := json.Marshal(models.NewDeliveryRecord(runID, b))
		if err != nil {
			return fmt.Errorf("failed to encode bundle %s: %w", b.ID, err)
		}
		if err := dest.WriteMessage(TopicDeliveries, msg); err != nil {
			return fmt.Errorf("failed to write bundle %s: %w", b.ID, err)
		}
	}
	return nil
}
