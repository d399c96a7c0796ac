package api

// swagger:model api.LocationRequest
type LocationRequest struct {
	Description string   `form:"description" validate:"max=140" example:"hall 2, north exit"`
	Lat         *float64 `form:"lat" validate:"required,gt=-90,lt=90" example:"53.561"`
	Lng         *float64 `form:"lng" validate:"required,gt=-180,lt=180" example:"9.985"`
	Level       *int     `form:"level" validate:"required" example:"1"`
	// 以 RFC3339 表示的生效時間，省略時為現在
	StartTime string `form:"start_time" example:"2026-08-26T15:04:05Z"`
}
