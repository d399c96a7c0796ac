package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bottledrop/internal/cache"
	"bottledrop/internal/database"
	"bottledrop/internal/middleware"
	"bottledrop/internal/model"
	"bottledrop/internal/service"
	"bottledrop/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{ err error }

func (s *stubValidator) Validate(i interface{}) error { return s.err }

func restore() {
	hashPassword = service.HashPassword
	authenticateUser = service.AuthenticateUser
	createUser = store.CreateUser
	getUserByID = store.GetUserByID
	listUsers = store.ListUsers
	setUserActive = store.SetUserActive
	updateUserPermissions = store.UpdateUserPermissions
	updateUserPassword = store.UpdateUserPassword
	deleteUser = store.DeleteUser
}

func newFormCtx(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withUserID(ctx echo.Context, id string) echo.Context {
	ctx.SetParamNames("user_id")
	ctx.SetParamValues(id)
	return ctx
}

func TestIsUniqueViolation(t *testing.T) {
	require.False(t, isUniqueViolation(errors.New("boom")))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, isUniqueViolation(fmt.Errorf("CreateUser: %w", &pgconn.PgError{Code: "23505"})))
}

func TestListUsersHandler(t *testing.T) {
	e := echo.New()

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		listUsers = func(context.Context, database.DB) ([]model.User, error) {
			return nil, errors.New("boom")
		}
		ctx, rec := newFormCtx(e, http.MethodGet, "/users", "")
		require.NoError(t, ListUsersHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		listUsers = func(context.Context, database.DB) ([]model.User, error) {
			return []model.User{
				{ID: 1, Name: "alice", IsActive: true, IsAdmin: true},
				{ID: 2, Name: "bob", IsActive: false, CanVisit: true},
			}, nil
		}
		ctx, rec := newFormCtx(e, http.MethodGet, "/users", "")
		require.NoError(t, ListUsersHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"name":"alice"`)
		require.Contains(t, rec.Body.String(), `"name":"bob"`)
		require.Contains(t, rec.Body.String(), `"is_active":false`)
	})
}

func TestCreateUserHandler(t *testing.T) {
	e := echo.New()

	t.Run("bind error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "%")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validate error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{err: errors.New("v")}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "name=a")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("hash error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(string) (string, error) { return "", errors.New("boom") }
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "name=a&password=p")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(string) (string, error) { return "hash", nil }
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			return nil, fmt.Errorf("CreateUser: %w", &pgconn.PgError{Code: "23505"})
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "name=a&password=p")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(string) (string, error) { return "hash", nil }
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			return nil, errors.New("boom")
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "name=a&password=p")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(p string) (string, error) {
			require.Equal(t, "secret", p)
			return "hash", nil
		}
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
			require.Equal(t, "alice", u.Name)
			require.NotNil(t, u.PasswordHash)
			require.Equal(t, "hash", *u.PasswordHash)
			require.True(t, u.IsActive)
			require.True(t, u.CanVisit)
			require.False(t, u.IsAdmin)
			created := *u
			created.ID = 7
			created.CreatedAt = time.Now()
			return &created, nil
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users", "name=alice&password=secret&can_visit=true")
		require.NoError(t, CreateUserHandler(nil)(ctx))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), `"id":7`)
	})
}

func TestEnableDisableUserHandler(t *testing.T) {
	e := echo.New()

	t.Run("invalid user ID", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newFormCtx(e, http.MethodPost, "/users/x/enable", "")
		require.NoError(t, EnableUserHandler(nil, nil)(withUserID(ctx, "x")))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enable user not found", func(t *testing.T) {
		t.Cleanup(restore)
		setUserActive = func(context.Context, database.DB, int, bool) error {
			return fmt.Errorf("SetUserActive: %w", pgx.ErrNoRows)
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users/9/enable", "")
		require.NoError(t, EnableUserHandler(nil, nil)(withUserID(ctx, "9")))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enable removes from disabled set", func(t *testing.T) {
		t.Cleanup(restore)
		setUserActive = func(_ context.Context, _ database.DB, id int, active bool) error {
			require.Equal(t, 3, id)
			require.True(t, active)
			return nil
		}
		rdb := &cache.FakeCache{
			SRemFn: func(ctx context.Context, key string, members ...any) *redis.IntCmd {
				require.Equal(t, middleware.DisabledUsersKey, key)
				require.Equal(t, []any{3}, members)
				return redis.NewIntResult(1, nil)
			},
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users/3/enable", "")
		require.NoError(t, EnableUserHandler(nil, rdb)(withUserID(ctx, "3")))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disable adds to disabled set", func(t *testing.T) {
		t.Cleanup(restore)
		setUserActive = func(_ context.Context, _ database.DB, id int, active bool) error {
			require.Equal(t, 3, id)
			require.False(t, active)
			return nil
		}
		rdb := &cache.FakeCache{
			SAddFn: func(ctx context.Context, key string, members ...any) *redis.IntCmd {
				require.Equal(t, middleware.DisabledUsersKey, key)
				require.Equal(t, []any{3}, members)
				return redis.NewIntResult(1, nil)
			},
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users/3/disable", "")
		require.NoError(t, DisableUserHandler(nil, rdb)(withUserID(ctx, "3")))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disable redis failure", func(t *testing.T) {
		t.Cleanup(restore)
		setUserActive = func(context.Context, database.DB, int, bool) error { return nil }
		rdb := &cache.FakeCache{
			SAddFn: func(ctx context.Context, key string, members ...any) *redis.IntCmd {
				return redis.NewIntResult(0, errors.New("redis down"))
			},
		}
		ctx, rec := newFormCtx(e, http.MethodPost, "/users/3/disable", "")
		require.NoError(t, DisableUserHandler(nil, rdb)(withUserID(ctx, "3")))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUpdatePermissionsHandler(t *testing.T) {
	e := echo.New()

	t.Run("user not found", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		updateUserPermissions = func(context.Context, database.DB, int, bool, bool, bool) error {
			return fmt.Errorf("UpdateUserPermissions: %w", pgx.ErrNoRows)
		}
		ctx, rec := newFormCtx(e, http.MethodPut, "/users/5/permissions", "can_visit=true")
		require.NoError(t, UpdatePermissionsHandler(nil)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		updateUserPermissions = func(_ context.Context, _ database.DB, id int, canVisit, canEdit, isAdmin bool) error {
			require.Equal(t, 5, id)
			require.True(t, canVisit)
			require.True(t, canEdit)
			require.False(t, isAdmin)
			return nil
		}
		ctx, rec := newFormCtx(e, http.MethodPut, "/users/5/permissions", "can_visit=true&can_edit=true")
		require.NoError(t, UpdatePermissionsHandler(nil)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSetPasswordHandler(t *testing.T) {
	e := echo.New()

	t.Run("user not found", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(string) (string, error) { return "hash", nil }
		updateUserPassword = func(context.Context, database.DB, int, string) error {
			return fmt.Errorf("UpdateUserPassword: %w", pgx.ErrNoRows)
		}
		ctx, rec := newFormCtx(e, http.MethodPut, "/users/5/password", "password=p")
		require.NoError(t, SetPasswordHandler(nil)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		hashPassword = func(p string) (string, error) {
			require.Equal(t, "newpass", p)
			return "hash", nil
		}
		updateUserPassword = func(_ context.Context, _ database.DB, id int, hash string) error {
			require.Equal(t, 5, id)
			require.Equal(t, "hash", hash)
			return nil
		}
		ctx, rec := newFormCtx(e, http.MethodPut, "/users/5/password", "password=newpass")
		require.NoError(t, SetPasswordHandler(nil)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestDeleteUserHandler(t *testing.T) {
	e := echo.New()

	t.Run("user not found", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(context.Context, database.DB, int) error {
			return fmt.Errorf("DeleteUser: %w", pgx.ErrNoRows)
		}
		ctx, rec := newFormCtx(e, http.MethodDelete, "/users/5", "")
		require.NoError(t, DeleteUserHandler(nil, nil)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success blocks outstanding tokens", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(_ context.Context, _ database.DB, id int) error {
			require.Equal(t, 5, id)
			return nil
		}
		rdb := &cache.FakeCache{
			SAddFn: func(ctx context.Context, key string, members ...any) *redis.IntCmd {
				require.Equal(t, middleware.DisabledUsersKey, key)
				require.Equal(t, []any{5}, members)
				return redis.NewIntResult(1, nil)
			},
		}
		ctx, rec := newFormCtx(e, http.MethodDelete, "/users/5", "")
		require.NoError(t, DeleteUserHandler(nil, rdb)(withUserID(ctx, "5")))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestGetMyUserHandler(t *testing.T) {
	e := echo.New()

	t.Run("missing claims", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newFormCtx(e, http.MethodGet, "/users/me", "")
		require.NoError(t, GetMyUserHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(_ context.Context, _ database.DB, id int) (*model.User, error) {
			require.Equal(t, 9, id)
			return &model.User{ID: 9, Name: "carol", IsActive: true}, nil
		}
		ctx, rec := newFormCtx(e, http.MethodGet, "/users/me", "")
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 9})
		require.NoError(t, GetMyUserHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"name":"carol"`)
	})
}

func TestUpdateMyPasswordHandler(t *testing.T) {
	e := echo.New()

	t.Run("missing claims", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		ctx, rec := newFormCtx(e, http.MethodPatch, "/users/me/password", "new_password=n")
		require.NoError(t, UpdateMyPasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong old password", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return &model.User{ID: 9, IsActive: true}, nil
		}
		authenticateUser = func(context.Context, model.User, string) error {
			return errors.New("invalid password")
		}
		ctx, rec := newFormCtx(e, http.MethodPatch, "/users/me/password", "old_password=bad&new_password=n")
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 9})
		require.NoError(t, UpdateMyPasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return &model.User{ID: 9, IsActive: true}, nil
		}
		authenticateUser = func(_ context.Context, u model.User, password string) error {
			require.Equal(t, 9, u.ID)
			require.Equal(t, "old", password)
			return nil
		}
		hashPassword = func(p string) (string, error) {
			require.Equal(t, "new", p)
			return "hash", nil
		}
		updateUserPassword = func(_ context.Context, _ database.DB, id int, hash string) error {
			require.Equal(t, 9, id)
			require.Equal(t, "hash", hash)
			return nil
		}
		ctx, rec := newFormCtx(e, http.MethodPatch, "/users/me/password", "old_password=old&new_password=new")
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{UserID: 9})
		require.NoError(t, UpdateMyPasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
