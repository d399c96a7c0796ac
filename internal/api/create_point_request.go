package api

// swagger:model api.CreatePointRequest
type CreatePointRequest struct {
	Number      int      `form:"number" validate:"required,gt=0" example:"17"`
	Description string   `form:"description" validate:"max=140" example:"hall 2, north exit"`
	Lat         *float64 `form:"lat" validate:"required,gt=-90,lt=90" example:"53.561"`
	Lng         *float64 `form:"lng" validate:"required,gt=-180,lt=180" example:"9.985"`
	Level       *int     `form:"level" validate:"required" example:"1"`
	Crates      *int     `form:"crates" validate:"omitempty,gte=0" example:"2"`
}
