package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/factories"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/chrisdamba/dispatchsim/internal/output"
	"github.com/chrisdamba/dispatchsim/internal/repositories/memory"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: file\n"), 0o644))
	c, err := models.LoadConfigFrom(viper.New(), path)
	require.NoError(t, err)

	c.Generator.Shops = 2
	c.Generator.CouriersPerShop = 2
	c.Generator.OrdersPerShop = 8
	c.Generator.HistoricalCost = 120
	return c
}

func TestSimulateDayWritesDeliveries(t *testing.T) {
	c := testConfig(t)
	day := factories.NewDayFactory(c.Generator).CreateDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	dest := output.NewConsoleOutput(&buf)
	summary, err := simulateDay(context.Background(), c, day, memory.NewStatisticsRepository(day.History), dest, logger.NopLogger{}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 16, summary.Orders)
	assert.Equal(t, summary.Orders, summary.Delivered+summary.Undelivered)
	assert.Positive(t, summary.Delivered)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, summary.Bundles)

	delivered := 0
	runIDs := map[string]bool{}
	for _, line := range lines {
		var rec models.DeliveryRecord
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "[deliveries] ")), &rec))
		delivered += int(rec.OrderCount)
		runIDs[rec.RunID] = true
	}
	assert.Equal(t, summary.Delivered, delivered)
	assert.Len(t, runIDs, 1, "one run ID per simulated day")
}

func TestSimulateDayReportsStatus(t *testing.T) {
	c := testConfig(t)
	day := factories.NewDayFactory(c.Generator).CreateDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	day.Couriers = nil

	_, err := simulateDay(context.Background(), c, day, memory.NewStatisticsRepository(nil), output.NewConsoleOutput(io.Discard), logger.NopLogger{}, io.Discard)
	assert.ErrorContains(t, err, "no_couriers")
}

func TestLoadDayFromFile(t *testing.T) {
	c := testConfig(t)
	c.DayFile = filepath.Join(t.TempDir(), "day.json")
	day := factories.NewDayFactory(c.Generator).CreateDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, storeDay(context.Background(), c, "file", day))

	loaded, history, release, err := loadDay(context.Background(), c)
	require.NoError(t, err)
	defer release()
	assert.Len(t, loaded.Orders, 16)

	averages, err := history.GetAverageOrderDeliveryCost(context.Background(), loaded.Shops[0].ID, loaded.Date)
	require.NoError(t, err)
	assert.Equal(t, 240.0, averages[models.VehicleTaxi])

	c.Source = "postgres"
	_, _, _, err = loadDay(context.Background(), c)
	assert.Error(t, err, "postgres needs a date")

	c.Source = "ftp"
	_, _, _, err = loadDay(context.Background(), c)
	assert.Error(t, err)
}
