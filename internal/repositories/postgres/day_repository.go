package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DayRepository struct {
	pool *pgxpool.Pool
}

func NewDayRepository(pool *pgxpool.Pool) *DayRepository {
	return &DayRepository{pool: pool}
}

// LoadDay reads all shops, the couriers whose shift starts on date and the
// orders assembled on date. date is truncated to its UTC day.
func (r *DayRepository) LoadDay(ctx context.Context, date time.Time) (*models.DayData, error) {
	from := date.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	day := &models.DayData{Date: from}
	var err error
	if day.Shops, err = r.shops(ctx); err != nil {
		return nil, fmt.Errorf("failed to load shops: %w", err)
	}
	if day.Couriers, err = r.couriers(ctx, from, to); err != nil {
		return nil, fmt.Errorf("failed to load couriers: %w", err)
	}
	if day.Orders, err = r.orders(ctx, from, to); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return day, nil
}

// SaveDay stores a day in one transaction, replacing rows with the same keys.
func (r *DayRepository) SaveDay(ctx context.Context, day *models.DayData) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range day.Shops {
		_, err = tx.Exec(ctx, `
            INSERT INTO shops (id, name, lat, lon) VALUES ($1, $2, $3, $4)
            ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon
        `, s.ID, s.Name, s.Location.Lat, s.Location.Lon)
		if err != nil {
			return fmt.Errorf("failed to save shop %s: %w", s.ID, err)
		}
	}
	for _, c := range day.Couriers {
		_, err = tx.Exec(ctx, `
            INSERT INTO couriers (id, name, vehicle, lat, lon, work_start, work_end)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (id, work_start) DO UPDATE SET work_end = EXCLUDED.work_end, vehicle = EXCLUDED.vehicle
        `, c.ID, c.Name, string(c.Vehicle), c.Location.Lat, c.Location.Lon, c.WorkStart, c.WorkEnd)
		if err != nil {
			return fmt.Errorf("failed to save courier %s: %w", c.ID, err)
		}
	}
	for _, o := range day.Orders {
		_, err = tx.Exec(ctx, `
            INSERT INTO orders (id, shop_id, lat, lon, weight, assembled_at, deadline)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (id) DO NOTHING
        `, o.ID, o.ShopID, o.Location.Lat, o.Location.Lon, o.Weight, o.AssembledAt, o.Deadline)
		if err != nil {
			return fmt.Errorf("failed to save order %s: %w", o.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *DayRepository) shops(ctx context.Context) ([]*models.Shop, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, lat, lon FROM shops ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []*models.Shop
	for rows.Next() {
		s := &models.Shop{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, err
		}
		shops = append(shops, s)
	}
	return shops, rows.Err()
}

func (r *DayRepository) couriers(ctx context.Context, from, to time.Time) ([]*models.Courier, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, vehicle, lat, lon, work_start, work_end
        FROM couriers
        WHERE work_start >= $1 AND work_start < $2
        ORDER BY work_start, id
    `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var couriers []*models.Courier
	for rows.Next() {
		var (
			id, name, vehicle string
			loc               models.Location
			start, end        time.Time
		)
		if err := rows.Scan(&id, &name, &vehicle, &loc.Lat, &loc.Lon, &start, &end); err != nil {
			return nil, err
		}
		c := models.NewCourier(id, models.VehicleType(vehicle), models.VehicleProfile{}, loc, start, end)
		c.Name = name
		couriers = append(couriers, c)
	}
	return couriers, rows.Err()
}

func (r *DayRepository) orders(ctx context.Context, from, to time.Time) ([]*models.Order, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, shop_id, lat, lon, weight, assembled_at, deadline
        FROM orders
        WHERE assembled_at >= $1 AND assembled_at < $2
        ORDER BY assembled_at, id
    `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o := &models.Order{Status: models.OrderStatusPending}
		if err := rows.Scan(&o.ID, &o.ShopID, &o.Location.Lat, &o.Location.Lon, &o.Weight, &o.AssembledAt, &o.Deadline); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
