package api

import "time"

// swagger:model api.PointResponse
type PointResponse struct {
	Number       int        `json:"number" example:"17"`
	Removed      *time.Time `json:"removed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Description  string     `json:"description" example:"hall 2, north exit"`
	Lat          *float64   `json:"lat,omitempty" example:"53.561"`
	Lng          *float64   `json:"lng,omitempty" example:"9.985"`
	Level        *int       `json:"level,omitempty" example:"1"`
	Crates       int        `json:"crates" example:"2"`
	LastState    string     `json:"last_state" example:"SOME_BOTTLES"`
	Priority     float64    `json:"priority" example:"3.3"`
	ReportsTotal int        `json:"reports_total" example:"5"`
	ReportsNew   int        `json:"reports_new" example:"1"`
}
