package geo

import (
	"context"
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"golang.org/x/sync/errgroup"
)

// Distancer is the read side of a distance matrix as seen by the simulator.
type Distancer interface {
	Index(loc models.Location) (int, bool)
	Distance(from, to int) float64
}

// Matrix is a dense table of pairwise distances over a fixed point set.
type Matrix struct {
	points []models.Location
	index  map[string]int
	km     []float64
}

// NewMatrix resolves every pair of distinct locations through the provider.
// Rows are fetched concurrently, at most workers at a time.
func NewMatrix(ctx context.Context, provider Provider, locations []models.Location, workers int) (*Matrix, error) {
	m := &Matrix{index: make(map[string]int, len(locations))}
	for _, loc := range locations {
		key := loc.Key()
		if _, ok := m.index[key]; ok {
			continue
		}
		m.index[key] = len(m.points)
		m.points = append(m.points, loc)
	}
	n := len(m.points)
	m.km = make([]float64, n*n)

	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		row := i
		g.Go(func() error {
			for j := 0; j < n; j++ {
				if j == row {
					continue
				}
				d, err := provider.Distance(gctx, m.points[row], m.points[j])
				if err != nil {
					return fmt.Errorf("distance %s -> %s: %w", m.points[row], m.points[j], err)
				}
				m.km[row*n+j] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matrix) Index(loc models.Location) (int, bool) {
	i, ok := m.index[loc.Key()]
	return i, ok
}

func (m *Matrix) Distance(from, to int) float64 {
	return m.km[from*len(m.points)+to]
}

func (m *Matrix) Len() int { return len(m.points) }

// DayLocations lists every point a day can visit: shops, courier start
// positions and order destinations.
func DayLocations(day *models.DayData) []models.Location {
	locs := make([]models.Location, 0, len(day.Shops)+len(day.Couriers)+len(day.Orders))
	for _, s := range day.Shops {
		locs = append(locs, s.Location)
	}
	for _, c := range day.Couriers {
		locs = append(locs, c.Location)
	}
	for _, o := range day.Orders {
		locs = append(locs, o.Location)
	}
	return locs
}
