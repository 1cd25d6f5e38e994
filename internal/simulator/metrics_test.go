package simulator

import (
	"context"
	"testing"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDayRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	shop := newTestShop("s1", km(0, 0))
	courier := newTestCourier("c1", km(0, 0))
	orders := []*models.Order{
		newTestOrder("o1", "s1", km(3, 0), at(10, 0), at(11, 0)),
		newTestOrder("o2", "s1", km(4, 0), at(10, 0), at(11, 0)),
	}
	m := testMatrix(t, []*models.Shop{shop}, []*models.Courier{courier}, orders)

	d := NewDispatcher(testConfig(), m)
	status := d.RunDay(context.Background(), []*models.Shop{shop}, []*models.Courier{courier}, orders, nil)
	require.Equal(t, StatusOK, status, "err: %v", d.Err())

	bundles := len(d.ExecutedDeliveries())
	require.NotZero(t, bundles)
	assert.Equal(t, 1.0, testutil.ToFloat64(dayRuns.WithLabelValues("ok")))
	assert.Zero(t, testutil.ToFloat64(dayRuns.WithLabelValues("exception")))
	assert.Equal(t, 2.0, testutil.ToFloat64(eventsProcessed.WithLabelValues(models.EventOrderAssembled)))
	assert.Equal(t, float64(bundles), testutil.ToFloat64(eventsProcessed.WithLabelValues(models.EventOrderDelivered)))
	assert.Equal(t, float64(bundles), testutil.ToFloat64(bundlesDispatched.WithLabelValues("bicycle")))
	assert.Equal(t, 2.0, testutil.ToFloat64(ordersDispatched.WithLabelValues("bicycle")))

	// the collectors are registered on reg and nowhere else
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "dispatchsim_day_runs_total")
	assert.Contains(t, names, "dispatchsim_events_processed_total")
}
