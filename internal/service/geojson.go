// File: internal/service/geojson.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bottledrop/internal/cache"
	"bottledrop/internal/database"
)

// GeoJSONKey 是地圖資料的快取鍵。
const GeoJSONKey = "points:geojson"

// GeoJSONTTL 是地圖資料的快取時效。
const GeoJSONTTL = time.Minute

// Feature 是單一 drop point 的 GeoJSON 表示。
type Feature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   *Geometry         `json:"geometry"`
}

type FeatureProperties struct {
	Number       int     `json:"number"`
	Description  string  `json:"description"`
	ReportsTotal int     `json:"reports_total"`
	ReportsNew   int     `json:"reports_new"`
	Priority     float64 `json:"priority"`
	LastState    string  `json:"last_state"`
	Crates       int     `json:"crates"`
	Removed      bool    `json:"removed"`
}

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureCollection 是所有 drop point 的 GeoJSON 集合。
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// BuildFeatureCollection 把狀態快照轉成 GeoJSON FeatureCollection。
// 位置未知的點沒有 geometry。座標順序是 [lng, lat]。
func BuildFeatureCollection(statuses []PointStatus, now time.Time) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(statuses))}
	for _, st := range statuses {
		f := Feature{
			Type: "Feature",
			Properties: FeatureProperties{
				Number:       st.Point.Number,
				ReportsTotal: st.TotalReports,
				ReportsNew:   NewReportCount(st),
				Priority:     Priority(st, now),
				LastState:    LastState(st),
				Crates:       st.Crates,
				Removed:      st.Point.Removed != nil,
			},
		}
		if st.Location != nil {
			f.Properties.Description = st.Location.Description
			f.Geometry = &Geometry{
				Type:        "Point",
				Coordinates: [2]float64{st.Location.Lng, st.Location.Lat},
			}
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}

// RefreshGeoJSON 重新計算所有點的 GeoJSON 並寫入快取，回傳序列化結果。
func RefreshGeoJSON(ctx context.Context, db database.DB, rdb cache.Cache) ([]byte, error) {
	statuses, err := LoadAllStatuses(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("RefreshGeoJSON: %w", err)
	}
	fc := BuildFeatureCollection(statuses, time.Now())
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("RefreshGeoJSON: %w", err)
	}
	if err := rdb.Set(ctx, GeoJSONKey, data, GeoJSONTTL).Err(); err != nil {
		return nil, fmt.Errorf("RefreshGeoJSON: %w", err)
	}
	return data, nil
}
