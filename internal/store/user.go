package store

import (
	"context"
	"fmt"

	"bottledrop/internal/database"
	"bottledrop/internal/model"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, password_hash, is_active, can_visit, can_edit, is_admin, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.PasswordHash,
		&u.IsActive,
		&u.CanVisit,
		&u.CanEdit,
		&u.IsAdmin,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return u, nil
}

func GetUserByID(ctx context.Context, db database.DB, userID int) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

func GetUserByName(ctx context.Context, db database.DB, userName string) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1`,
		userName,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("GetUserByName: %w", err)
	}
	return u, nil
}

func ListUsers(ctx context.Context, db database.DB) ([]model.User, error) {
	rows, err := db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return users, nil
}

func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO users (name, password_hash, is_active, can_visit, can_edit, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		u.Name,
		u.PasswordHash,
		u.IsActive,
		u.CanVisit,
		u.CanEdit,
		u.IsAdmin,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

func SetUserActive(ctx context.Context, db database.DB, userID int, active bool) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2`,
		active,
		userID,
	)
	if err != nil {
		return fmt.Errorf("SetUserActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SetUserActive: %w", pgx.ErrNoRows)
	}
	return nil
}

func UpdateUserPermissions(ctx context.Context, db database.DB, userID int, canVisit, canEdit, isAdmin bool) error {
	tag, err := db.Exec(ctx,
		`UPDATE users SET can_visit = $1, can_edit = $2, is_admin = $3
		 WHERE id = $4`,
		canVisit,
		canEdit,
		isAdmin,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateUserPermissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdateUserPermissions: %w", pgx.ErrNoRows)
	}
	return nil
}

func UpdateUserPassword(ctx context.Context, db database.DB, userID int, passwordHash string) error {
	tag, err := db.Exec(ctx,
		`UPDATE users
		 SET password_hash = $1
		 WHERE id = $2`,
		passwordHash,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateUserPassword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UpdateUserPassword: %w", pgx.ErrNoRows)
	}
	return nil
}

func DeleteUser(ctx context.Context, db database.DB, userID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM users WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteUser: %w", pgx.ErrNoRows)
	}
	return nil
}
