package router

import (
	"net/http"
	"testing"

	"bottledrop/internal/cache"
	"bottledrop/internal/database"
	"bottledrop/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestSetupRoutes(t *testing.T) {
	e := echo.New()
	Setup(e, &database.FakeDB{}, &cache.FakeCache{}, worker.NewPool(1), "https://bottles.example.org")

	got := map[string]struct{}{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = struct{}{}
	}

	expected := []string{
		http.MethodGet + " /api/ping",
		http.MethodPost + " /api/auth/login",
		http.MethodGet + " /api/users",
		http.MethodPost + " /api/users",
		http.MethodPost + " /api/users/:user_id/enable",
		http.MethodPost + " /api/users/:user_id/disable",
		http.MethodPut + " /api/users/:user_id/permissions",
		http.MethodPut + " /api/users/:user_id/password",
		http.MethodDelete + " /api/users/:user_id",
		http.MethodGet + " /api/users/me",
		http.MethodPatch + " /api/users/me/password",
		http.MethodPost + " /api/points",
		http.MethodGet + " /api/points",
		http.MethodGet + " /api/points.geojson",
		http.MethodGet + " /api/points/:number",
		http.MethodDelete + " /api/points/:number",
		http.MethodPut + " /api/points/:number/location",
		http.MethodPut + " /api/points/:number/capacity",
		http.MethodPost + " /api/points/:number/report",
		http.MethodPost + " /api/points/:number/visit",
		http.MethodGet + " /api/labels/points.pdf",
		http.MethodGet + " /api/labels/points.zip",
		http.MethodGet + " /api/labels/points/:number",
	}

	require.Equal(t, len(expected), len(got))
	for _, k := range expected {
		_, ok := got[k]
		require.True(t, ok, "missing route %s", k)
	}
}
