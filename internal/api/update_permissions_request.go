package api

// swagger:model api.UpdatePermissionsRequest
type UpdatePermissionsRequest struct {
	CanVisit bool `form:"can_visit" example:"true"`
	CanEdit  bool `form:"can_edit" example:"false"`
	IsAdmin  bool `form:"is_admin" example:"false"`
}
