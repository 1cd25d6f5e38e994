package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/factories"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic day of shops, couriers and orders",
	RunE:  generateDay,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Int64("seed", 42, "random seed")
	generateCmd.Flags().Int("shops", 5, "number of shops")
	generateCmd.Flags().Int("couriers-per-shop", 3, "couriers on the roster per shop")
	generateCmd.Flags().Int("orders-per-shop", 40, "orders per shop")
	generateCmd.Flags().Float64("historical-cost", 0, "historical cost per order; 0 generates no history")
	generateCmd.Flags().String("day-file", "day.json", "file to write")
	generateCmd.Flags().String("target", "file", "where to store the day (file or postgres)")

	bindCommandFlags(generateCmd, map[string]string{
		"generator.seed":              "seed",
		"generator.shops":             "shops",
		"generator.couriers_per_shop": "couriers-per-shop",
		"generator.orders_per_shop":   "orders-per-shop",
		"generator.historical_cost":   "historical-cost",
		"day_file":                    "day-file",
	})
}

func generateDay(cmd *cobra.Command, args []string) error {
	log := logger.New("generate")
	date := cfg.Simulation.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	day := factories.NewDayFactory(cfg.Generator).CreateDay(date)
	target, _ := cmd.Flags().GetString("target")
	if err := storeDay(cmd.Context(), cfg, target, day); err != nil {
		return err
	}
	log.Infof("generated %s: %d shops, %d couriers, %d orders",
		day.Date.Format(time.DateOnly), len(day.Shops), len(day.Couriers), len(day.Orders))
	return nil
}

func storeDay(ctx context.Context, cfg *models.Config, target string, day *models.DayData) error {
	switch target {
	case "", "file":
		return day.Save(cfg.DayFile)
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		return postgres.NewDayRepository(pool).SaveDay(ctx, day)
	}
	return fmt.Errorf("unknown target %q", target)
}
