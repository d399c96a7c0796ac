// File: internal/model/user.go
package model

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CanVisit     bool      `db:"can_visit" json:"can_visit"`
	CanEdit      bool      `db:"can_edit" json:"can_edit"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
