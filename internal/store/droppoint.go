package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bottledrop/internal/database"
	"bottledrop/internal/model"

	"github.com/jackc/pgx/v5"
)

func CreateDropPoint(ctx context.Context, db database.DB, dp *model.DropPoint) (*model.DropPoint, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO drop_points (number)
		 VALUES ($1)
		 RETURNING created_at`,
		dp.Number,
	)
	if err := row.Scan(&dp.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateDropPoint: %w", err)
	}
	return dp, nil
}

func GetDropPoint(ctx context.Context, db database.DB, number int) (*model.DropPoint, error) {
	row := db.QueryRow(ctx,
		`SELECT number, removed, created_at FROM drop_points WHERE number = $1`,
		number,
	)
	dp := &model.DropPoint{}
	if err := row.Scan(&dp.Number, &dp.Removed, &dp.CreatedAt); err != nil {
		return nil, fmt.Errorf("GetDropPoint: %w", err)
	}
	return dp, nil
}

func ListDropPoints(ctx context.Context, db database.DB) ([]model.DropPoint, error) {
	rows, err := db.Query(ctx,
		`SELECT number, removed, created_at FROM drop_points ORDER BY number`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDropPoints: %w", err)
	}
	defer rows.Close()

	var points []model.DropPoint
	for rows.Next() {
		dp := model.DropPoint{}
		if err := rows.Scan(&dp.Number, &dp.Removed, &dp.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListDropPoints: %w", err)
		}
		points = append(points, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDropPoints: %w", err)
	}
	return points, nil
}

func RemoveDropPoint(ctx context.Context, db database.DB, number int, at time.Time) error {
	tag, err := db.Exec(ctx,
		`UPDATE drop_points SET removed = $1 WHERE number = $2 AND removed IS NULL`,
		at,
		number,
	)
	if err != nil {
		return fmt.Errorf("RemoveDropPoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("RemoveDropPoint: %w", pgx.ErrNoRows)
	}
	return nil
}

func AddLocation(ctx context.Context, db database.DB, loc *model.Location) (*model.Location, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO locations (number, start_time, description, lat, lng, level)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		loc.Number,
		loc.StartTime,
		loc.Description,
		loc.Lat,
		loc.Lng,
		loc.Level,
	)
	if err := row.Scan(&loc.ID); err != nil {
		return nil, fmt.Errorf("AddLocation: %w", err)
	}
	return loc, nil
}

// LatestLocation 回傳目前位置；點尚無位置紀錄時回傳 (nil, nil)。
func LatestLocation(ctx context.Context, db database.DB, number int) (*model.Location, error) {
	row := db.QueryRow(ctx,
		`SELECT id, number, start_time, description, lat, lng, level
		 FROM locations WHERE number = $1
		 ORDER BY start_time DESC LIMIT 1`,
		number,
	)
	loc := &model.Location{}
	if err := row.Scan(&loc.ID, &loc.Number, &loc.StartTime, &loc.Description, &loc.Lat, &loc.Lng, &loc.Level); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("LatestLocation: %w", err)
	}
	return loc, nil
}

func AddCapacity(ctx context.Context, db database.DB, cap *model.Capacity) (*model.Capacity, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO capacities (number, start_time, crates)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		cap.Number,
		cap.StartTime,
		cap.Crates,
	)
	if err := row.Scan(&cap.ID); err != nil {
		return nil, fmt.Errorf("AddCapacity: %w", err)
	}
	return cap, nil
}

// LatestCapacity 回傳目前容量；點尚無容量紀錄時回傳 (nil, nil)。
func LatestCapacity(ctx context.Context, db database.DB, number int) (*model.Capacity, error) {
	row := db.QueryRow(ctx,
		`SELECT id, number, start_time, crates
		 FROM capacities WHERE number = $1
		 ORDER BY start_time DESC LIMIT 1`,
		number,
	)
	cap := &model.Capacity{}
	if err := row.Scan(&cap.ID, &cap.Number, &cap.StartTime, &cap.Crates); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("LatestCapacity: %w", err)
	}
	return cap, nil
}
