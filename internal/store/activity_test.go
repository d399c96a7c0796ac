package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"bottledrop/internal/database"
	"bottledrop/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeActivityRow 實作 pgx.Row，依 dest 數量對應報告、巡視或計數查詢。
type fakeActivityRow struct {
	scanErr error
	report  *model.Report
	visit   *model.Visit
	count   int
}

func (r *fakeActivityRow) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	switch len(dest) {
	case 1:
		// AddReport/AddVisit: id 或 CountReports: count
		*dest[0].(*int) = r.count
	case 4:
		if r.report != nil {
			*dest[0].(*int) = r.report.ID
			*dest[1].(*int) = r.report.Number
			*dest[2].(*time.Time) = r.report.Time
			*dest[3].(*string) = r.report.State
		} else {
			*dest[0].(*int) = r.visit.ID
			*dest[1].(*int) = r.visit.Number
			*dest[2].(*time.Time) = r.visit.Time
			*dest[3].(*string) = r.visit.Action
		}
	default:
		panic("fakeActivityRow.Scan: unexpected number of dest")
	}
	return nil
}

type fakeReportRows struct {
	data []model.Report
	idx  int
	err  error
}

func (r *fakeReportRows) Close()                                       {}
func (r *fakeReportRows) Err() error                                   { return r.err }
func (r *fakeReportRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeReportRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeReportRows) Next() bool                                   { return r.idx < len(r.data) }
func (r *fakeReportRows) Scan(dest ...any) error {
	rep := r.data[r.idx]
	r.idx++
	return (&fakeActivityRow{report: &rep}).Scan(dest...)
}
func (r *fakeReportRows) Values() ([]any, error) { return nil, nil }
func (r *fakeReportRows) RawValues() [][]byte    { return nil }
func (r *fakeReportRows) Conn() *pgx.Conn        { return nil }

func TestActivityStore(t *testing.T) {
	now := time.Now().UTC()

	t.Run("AddReport ok", func(t *testing.T) {
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
				require.Equal(t, []any{17, now, "FULL"}, args)
				return &fakeActivityRow{count: 8}
			},
		}
		rep, err := AddReport(context.Background(), db, &model.Report{Number: 17, Time: now, State: "FULL"})
		require.NoError(t, err)
		require.Equal(t, 8, rep.ID)
	})

	t.Run("LatestReport ok", func(t *testing.T) {
		want := &model.Report{ID: 8, Number: 17, Time: now, State: "FULL"}
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &fakeActivityRow{report: want}
			},
		}
		got, err := LatestReport(context.Background(), db, 17)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("LatestReport none", func(t *testing.T) {
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &fakeActivityRow{scanErr: pgx.ErrNoRows}
			},
		}
		got, err := LatestReport(context.Background(), db, 17)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("CountReports ok", func(t *testing.T) {
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &fakeActivityRow{count: 5}
			},
		}
		n, err := CountReports(context.Background(), db, 17)
		require.NoError(t, err)
		require.Equal(t, 5, n)
	})

	t.Run("ListReportsAfter with since", func(t *testing.T) {
		since := now.Add(-time.Hour)
		db := &database.FakeDB{
			QueryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				require.Equal(t, []any{17, since}, args)
				return &fakeReportRows{data: []model.Report{{ID: 2, State: "FULL"}}}, nil
			},
		}
		got, err := ListReportsAfter(context.Background(), db, 17, &since)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("ListReportsAfter all", func(t *testing.T) {
		db := &database.FakeDB{
			QueryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				require.Equal(t, []any{17}, args)
				return &fakeReportRows{data: []model.Report{{ID: 2}, {ID: 1}}}, nil
			},
		}
		got, err := ListReportsAfter(context.Background(), db, 17, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("ListReportsAfter query err", func(t *testing.T) {
		db := &database.FakeDB{
			QueryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("boom")
			},
		}
		_, err := ListReportsAfter(context.Background(), db, 17, nil)
		require.Error(t, err)
	})

	t.Run("AddVisit ok", func(t *testing.T) {
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
				require.Equal(t, []any{17, now, "EMPTIED"}, args)
				return &fakeActivityRow{count: 3}
			},
		}
		v, err := AddVisit(context.Background(), db, &model.Visit{Number: 17, Time: now, Action: "EMPTIED"})
		require.NoError(t, err)
		require.Equal(t, 3, v.ID)
	})

	t.Run("LatestVisit ok", func(t *testing.T) {
		want := &model.Visit{ID: 3, Number: 17, Time: now, Action: "EMPTIED"}
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &fakeActivityRow{visit: want}
			},
		}
		got, err := LatestVisit(context.Background(), db, 17)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("LatestVisit none", func(t *testing.T) {
		db := &database.FakeDB{
			QueryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &fakeActivityRow{scanErr: pgx.ErrNoRows}
			},
		}
		got, err := LatestVisit(context.Background(), db, 17)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}
