package api

import "time"

// swagger:model api.UserResponse
type UserResponse struct {
	ID        int       `json:"id" example:"1"`
	Name      string    `json:"name" example:"alice"`
	IsActive  bool      `json:"is_active" example:"true"`
	CanVisit  bool      `json:"can_visit" example:"true"`
	CanEdit   bool      `json:"can_edit" example:"false"`
	IsAdmin   bool      `json:"is_admin" example:"false"`
	CreatedAt time.Time `json:"created_at"`
}
