// File: internal/service/droppoint.go
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"bottledrop/internal/database"
	"bottledrop/internal/model"
	"bottledrop/internal/store"
)

// VisitInterval 是期望的巡視間隔。
// 未來可能依容量、位置或時段調整，目前固定兩小時。
const VisitInterval = 2 * time.Hour

// reportWeight 是單筆回報對優先度的貢獻。
// 之後可依回報狀態 (OVERFLOW > FULL > 其他) 與回報者身分加權。
const reportWeight = 1.0

// 測試替換點
var (
	latestLocation   = store.LatestLocation
	latestCapacity   = store.LatestCapacity
	latestReport     = store.LatestReport
	latestVisit      = store.LatestVisit
	countReports     = store.CountReports
	listReportsAfter = store.ListReportsAfter
	listDropPoints   = store.ListDropPoints
)

// PointStatus 聚合單一 drop point 的目前狀態與歷史統計。
type PointStatus struct {
	Point        model.DropPoint
	Location     *model.Location
	Crates       int
	TotalReports int
	LastReport   *model.Report
	LastVisit    *model.Visit
	NewReports   []model.Report
}

// LoadPointStatus 讀取一個 drop point 的完整狀態。
func LoadPointStatus(ctx context.Context, db database.DB, dp model.DropPoint) (*PointStatus, error) {
	st := &PointStatus{Point: dp}

	loc, err := latestLocation(ctx, db, dp.Number)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}
	st.Location = loc

	cap, err := latestCapacity(ctx, db, dp.Number)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}
	if cap != nil {
		st.Crates = cap.Crates
	}

	st.LastReport, err = latestReport(ctx, db, dp.Number)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}

	st.LastVisit, err = latestVisit(ctx, db, dp.Number)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}

	st.TotalReports, err = countReports(ctx, db, dp.Number)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}

	var since *time.Time
	if st.LastVisit != nil {
		since = &st.LastVisit.Time
	}
	st.NewReports, err = listReportsAfter(ctx, db, dp.Number, since)
	if err != nil {
		return nil, fmt.Errorf("LoadPointStatus: %w", err)
	}

	return st, nil
}

// LoadAllStatuses 讀取所有 drop point 的狀態。
func LoadAllStatuses(ctx context.Context, db database.DB) ([]PointStatus, error) {
	points, err := listDropPoints(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("LoadAllStatuses: %w", err)
	}
	statuses := make([]PointStatus, 0, len(points))
	for _, dp := range points {
		st, err := LoadPointStatus(ctx, db, dp)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

// LastState 推導 drop point 的目前狀態。
// 巡視晚於最後回報且動作為 EMPTIED 時視為 EMPTY；沒有任何回報時為 UNKNOWN。
func LastState(st PointStatus) string {
	switch {
	case st.LastReport != nil && st.LastVisit != nil:
		if st.LastVisit.Time.After(st.LastReport.Time) && st.LastVisit.Action == "EMPTIED" {
			return "EMPTY"
		}
		return st.LastReport.State
	case st.LastReport != nil:
		return st.LastReport.State
	default:
		return "UNKNOWN"
	}
}

// Priority 計算巡視優先度。
// 基準值 1 加上新回報的權重總和，乘上箱數因子與距上次巡視的時間因子；
// 已移除的點永遠是 0。結果四捨五入到小數點後兩位。
func Priority(st PointStatus, now time.Time) float64 {
	if st.Point.Removed != nil {
		return 0
	}

	priority := 1.0
	for range st.NewReports {
		priority += reportWeight
	}

	if st.Crates >= 1 {
		priority *= 1 + 0.1*float64(st.Crates)
	}

	if st.LastVisit != nil {
		priority *= now.Sub(st.LastVisit.Time).Seconds() / VisitInterval.Seconds()
	} else {
		priority *= 3
	}

	return math.Round(priority*100) / 100
}

// NewReportCount 回傳自上次巡視後的回報數。
func NewReportCount(st PointStatus) int {
	return len(st.NewReports)
}
