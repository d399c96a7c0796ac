package labels

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bottledrop/internal/api"
	"bottledrop/internal/database"
	"bottledrop/internal/label"
	"bottledrop/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

var (
	listDropPoints = store.ListDropPoints
	getDropPoint   = store.GetDropPoint
	renderPDF      = label.RenderPDF
	renderZip      = label.RenderZip
)

// activeNumbers 過濾已移除的點，標籤只印仍在場館內的。
func activeNumbers(ctx echo.Context, db database.DB) ([]int, error) {
	points, err := listDropPoints(ctx.Request().Context(), db)
	if err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(points))
	for _, dp := range points {
		if dp.Removed != nil {
			continue
		}
		numbers = append(numbers, dp.Number)
	}
	return numbers, nil
}

// @Summary     All labels as one PDF
// @Description 把所有現役 drop point 的標籤輸出為單一 PDF，每頁一張
// @Tags        labels
// @Produce     application/pdf
// @Success     200 {file} binary
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /labels/points.pdf [get]
func AllLabelsPDFHandler(db database.DB, baseURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		numbers, err := activeNumbers(c, db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		data, err := renderPDF(baseURL, numbers)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="labels.pdf"`)
		return c.Blob(http.StatusOK, "application/pdf", data)
	}
}

// @Summary     All labels as a ZIP of PDFs
// @Description 把每個現役 drop point 的標籤各別輸出為 PDF 並打包成 ZIP
// @Tags        labels
// @Produce     application/zip
// @Success     200 {file} binary
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /labels/points.zip [get]
func AllLabelsZipHandler(db database.DB, baseURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		numbers, err := activeNumbers(c, db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		data, err := renderZip(baseURL, numbers)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="labels.zip"`)
		return c.Blob(http.StatusOK, "application/zip", data)
	}
}

// @Summary     Label for one drop point
// @Description 輸出單一 drop point 的標籤 PDF
// @Tags        labels
// @Produce     application/pdf
// @Param       number path int true "編號"
// @Success     200 {file} binary
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /labels/points/{number}.pdf [get]
func PointLabelPDFHandler(db database.DB, baseURL string) echo.HandlerFunc {
	return func(c echo.Context) error {
		// 路由樣式為 /labels/points/:number，路徑上允許帶 .pdf 副檔名
		number, err := strconv.Atoi(strings.TrimSuffix(c.Param("number"), ".pdf"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		dp, err := getDropPoint(c.Request().Context(), db, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		data, err := renderPDF(baseURL, []int{dp.Number})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		name := fmt.Sprintf(`attachment; filename="label-%d.pdf"`, dp.Number)
		c.Response().Header().Set(echo.HeaderContentDisposition, name)
		return c.Blob(http.StatusOK, "application/pdf", data)
	}
}
