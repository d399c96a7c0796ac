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

func AddReport(ctx context.Context, db database.DB, r *model.Report) (*model.Report, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO reports (number, time, state)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		r.Number,
		r.Time,
		r.State,
	)
	if err := row.Scan(&r.ID); err != nil {
		return nil, fmt.Errorf("AddReport: %w", err)
	}
	return r, nil
}

// LatestReport 回傳最近一筆回報；沒有回報時回傳 (nil, nil)。
func LatestReport(ctx context.Context, db database.DB, number int) (*model.Report, error) {
	row := db.QueryRow(ctx,
		`SELECT id, number, time, state
		 FROM reports WHERE number = $1
		 ORDER BY time DESC LIMIT 1`,
		number,
	)
	r := &model.Report{}
	if err := row.Scan(&r.ID, &r.Number, &r.Time, &r.State); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("LatestReport: %w", err)
	}
	return r, nil
}

func CountReports(ctx context.Context, db database.DB, number int) (int, error) {
	row := db.QueryRow(ctx,
		`SELECT count(*) FROM reports WHERE number = $1`,
		number,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("CountReports: %w", err)
	}
	return n, nil
}

// ListReportsAfter 回傳 since 之後的回報（新到舊）；since 為 nil 時回傳全部。
func ListReportsAfter(ctx context.Context, db database.DB, number int, since *time.Time) ([]model.Report, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if since != nil {
		rows, err = db.Query(ctx,
			`SELECT id, number, time, state
			 FROM reports WHERE number = $1 AND time > $2
			 ORDER BY time DESC`,
			number, *since,
		)
	} else {
		rows, err = db.Query(ctx,
			`SELECT id, number, time, state
			 FROM reports WHERE number = $1
			 ORDER BY time DESC`,
			number,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("ListReportsAfter: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r := model.Report{}
		if err := rows.Scan(&r.ID, &r.Number, &r.Time, &r.State); err != nil {
			return nil, fmt.Errorf("ListReportsAfter: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListReportsAfter: %w", err)
	}
	return reports, nil
}

func AddVisit(ctx context.Context, db database.DB, v *model.Visit) (*model.Visit, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO visits (number, time, action)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		v.Number,
		v.Time,
		v.Action,
	)
	if err := row.Scan(&v.ID); err != nil {
		return nil, fmt.Errorf("AddVisit: %w", err)
	}
	return v, nil
}

// LatestVisit 回傳最近一次巡視；沒有巡視紀錄時回傳 (nil, nil)。
func LatestVisit(ctx context.Context, db database.DB, number int) (*model.Visit, error) {
	row := db.QueryRow(ctx,
		`SELECT id, number, time, action
		 FROM visits WHERE number = $1
		 ORDER BY time DESC LIMIT 1`,
		number,
	)
	v := &model.Visit{}
	if err := row.Scan(&v.ID, &v.Number, &v.Time, &v.Action); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("LatestVisit: %w", err)
	}
	return v, nil
}
