package api

// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	Name     string `form:"name" validate:"required" example:"alice"`
	Password string `form:"password" validate:"required" example:"Secret123!"`
	CanVisit bool   `form:"can_visit" example:"true"`
	CanEdit  bool   `form:"can_edit" example:"false"`
	IsAdmin  bool   `form:"is_admin" example:"false"`
}
