package repositories

import (
	"context"
	"database/sql"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/domain/models"
)

const routeColumns = `id, route_name, departure_location, arrival_location, price, estimated_time,
	available_seats, is_active, created_at`

type RouteRepository struct {
	DB *sql.DB
}

func (r RouteRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func scanRoute(row interface{ Scan(...any) error }) (models.Route, error) {
	var rt models.Route
	err := row.Scan(
		&rt.ID, &rt.RouteName, &rt.DepartureLocation, &rt.ArrivalLocation, &rt.Price,
		&rt.EstimatedTime, &rt.AvailableSeats, &rt.IsActive, &rt.CreatedAt,
	)
	return rt, err
}

func (r RouteRepository) ListActiveRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE is_active = 1 ORDER BY route_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return out, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r RouteRepository) GetActiveRoute(ctx context.Context, id int64) (models.Route, error) {
	rt, err := scanRoute(r.db().QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = ? AND is_active = 1 LIMIT 1`, id))
	if err != nil {
		return models.Route{}, translate(err)
	}
	return rt, nil
}

// ReserveSeats decrements inventory with a floor check so concurrent bookings
// cannot overbook.
func (r RouteRepository) ReserveSeats(ctx context.Context, id int64, seats int) error {
	err := intdb.ExecOne(ctx, r.db(),
		`UPDATE routes SET available_seats = available_seats - ? WHERE id = ? AND available_seats >= ?`,
		seats, id, seats)
	return translate(err)
}

func (r RouteRepository) ReleaseSeats(ctx context.Context, id int64, seats int) error {
	err := intdb.ExecOne(ctx, r.db(),
		`UPDATE routes SET available_seats = available_seats + ? WHERE id = ?`, seats, id)
	return translate(err)
}
