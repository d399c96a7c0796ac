package api

// swagger:model api.SetPasswordRequest
type SetPasswordRequest struct {
	Password string `form:"password" validate:"required" example:"NewSecret456!"`
}
