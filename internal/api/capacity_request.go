package api

// swagger:model api.CapacityRequest
type CapacityRequest struct {
	Crates *int `form:"crates" validate:"omitempty,gte=0" example:"3"`
	// 以 RFC3339 表示的生效時間，省略時為現在
	StartTime string `form:"start_time" example:"2026-08-26T15:04:05Z"`
}
