package labels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bottledrop/internal/database"
	"bottledrop/internal/label"
	"bottledrop/internal/model"
	"bottledrop/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func restore() {
	listDropPoints = store.ListDropPoints
	getDropPoint = store.GetDropPoint
	renderPDF = label.RenderPDF
	renderZip = label.RenderZip
}

func newCtx(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAllLabelsPDFHandler(t *testing.T) {
	e := echo.New()
	removed := time.Now()

	t.Run("skips removed points", func(t *testing.T) {
		t.Cleanup(restore)
		listDropPoints = func(context.Context, database.DB) ([]model.DropPoint, error) {
			return []model.DropPoint{
				{Number: 1},
				{Number: 2, Removed: &removed},
				{Number: 3},
			}, nil
		}
		renderPDF = func(baseURL string, numbers []int) ([]byte, error) {
			require.Equal(t, "https://bottles.example.org", baseURL)
			require.Equal(t, []int{1, 3}, numbers)
			return []byte("%PDF-fake"), nil
		}
		ctx, rec := newCtx(e, "/labels/points.pdf")
		require.NoError(t, AllLabelsPDFHandler(nil, "https://bottles.example.org")(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		require.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "labels.pdf")
	})

	t.Run("list error", func(t *testing.T) {
		t.Cleanup(restore)
		listDropPoints = func(context.Context, database.DB) ([]model.DropPoint, error) {
			return nil, errors.New("boom")
		}
		ctx, rec := newCtx(e, "/labels/points.pdf")
		require.NoError(t, AllLabelsPDFHandler(nil, "")(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("render error", func(t *testing.T) {
		t.Cleanup(restore)
		listDropPoints = func(context.Context, database.DB) ([]model.DropPoint, error) {
			return []model.DropPoint{{Number: 1}}, nil
		}
		renderPDF = func(string, []int) ([]byte, error) {
			return nil, errors.New("boom")
		}
		ctx, rec := newCtx(e, "/labels/points.pdf")
		require.NoError(t, AllLabelsPDFHandler(nil, "")(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAllLabelsZipHandler(t *testing.T) {
	e := echo.New()

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		listDropPoints = func(context.Context, database.DB) ([]model.DropPoint, error) {
			return []model.DropPoint{{Number: 4}, {Number: 7}}, nil
		}
		renderZip = func(baseURL string, numbers []int) ([]byte, error) {
			require.Equal(t, []int{4, 7}, numbers)
			return []byte("PK-fake"), nil
		}
		ctx, rec := newCtx(e, "/labels/points.zip")
		require.NoError(t, AllLabelsZipHandler(nil, "https://bottles.example.org")(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/zip", rec.Header().Get(echo.HeaderContentType))
		require.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "labels.zip")
	})
}

func TestPointLabelPDFHandler(t *testing.T) {
	e := echo.New()

	t.Run("invalid number", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newCtx(e, "/labels/points/x.pdf")
		ctx.SetParamNames("number")
		ctx.SetParamValues("x.pdf")
		require.NoError(t, PointLabelPDFHandler(nil, "")(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getDropPoint = func(context.Context, database.DB, int) (*model.DropPoint, error) {
			return nil, fmt.Errorf("GetDropPoint: %w", pgx.ErrNoRows)
		}
		ctx, rec := newCtx(e, "/labels/points/9.pdf")
		ctx.SetParamNames("number")
		ctx.SetParamValues("9.pdf")
		require.NoError(t, PointLabelPDFHandler(nil, "")(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getDropPoint = func(_ context.Context, _ database.DB, number int) (*model.DropPoint, error) {
			require.Equal(t, 9, number)
			return &model.DropPoint{Number: 9}, nil
		}
		renderPDF = func(baseURL string, numbers []int) ([]byte, error) {
			require.Equal(t, []int{9}, numbers)
			return []byte("%PDF-fake"), nil
		}
		ctx, rec := newCtx(e, "/labels/points/9.pdf")
		ctx.SetParamNames("number")
		ctx.SetParamValues("9.pdf")
		require.NoError(t, PointLabelPDFHandler(nil, "")(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "label-9.pdf")
	})
}
