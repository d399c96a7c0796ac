package points

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bottledrop/internal/api"
	"bottledrop/internal/cache"
	"bottledrop/internal/database"
	"bottledrop/internal/model"
	"bottledrop/internal/service"
	"bottledrop/internal/store"
	"bottledrop/internal/worker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
)

var (
	createDropPoint = store.CreateDropPoint
	getDropPoint    = store.GetDropPoint
	removeDropPoint = store.RemoveDropPoint
	addLocation     = store.AddLocation
	latestLocation  = store.LatestLocation
	addCapacity     = store.AddCapacity
	latestCapacity  = store.LatestCapacity
	addReport       = store.AddReport
	addVisit        = store.AddVisit
	loadPointStatus = service.LoadPointStatus
	loadAllStatuses = service.LoadAllStatuses
	refreshGeoJSON  = service.RefreshGeoJSON
	timeNow         = time.Now
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func paramNumber(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("number"))
}

// parseEventTime 解析表單上的事件時間，空字串代表現在。
// 未來的時間一律拒絕，歷史資料不允許超前寫入。
func parseEventTime(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("time must be RFC3339")
	}
	if t.After(now) {
		return time.Time{}, errors.New("time must not be in the future")
	}
	return t, nil
}

// submitRefresh 把地圖快取重算丟進背景 pool，不阻塞回應。
func submitRefresh(wp worker.Pool, db database.DB, rdb cache.Cache) {
	wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = refreshGeoJSON(ctx, db, rdb)
	})
}

func statusResponse(st *service.PointStatus, now time.Time) api.PointResponse {
	resp := api.PointResponse{
		Number:       st.Point.Number,
		Removed:      st.Point.Removed,
		CreatedAt:    st.Point.CreatedAt,
		Crates:       st.Crates,
		LastState:    service.LastState(*st),
		Priority:     service.Priority(*st, now),
		ReportsTotal: st.TotalReports,
		ReportsNew:   service.NewReportCount(*st),
	}
	if st.Location != nil {
		resp.Description = st.Location.Description
		resp.Lat = &st.Location.Lat
		resp.Lng = &st.Location.Lng
		resp.Level = &st.Location.Level
	}
	return resp
}

// @Summary     Create a drop point
// @Description 建立新的 drop point，並寫入初始位置與箱數
// @Tags        points
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       number      formData int    true  "編號"
// @Param       description formData string false "位置描述"
// @Param       lat         formData number true  "緯度"
// @Param       lng         formData number true  "經度"
// @Param       level       formData int    true  "樓層"
// @Param       crates      formData int    false "箱數，預設 1"
// @Success     201 {object} api.PointResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points [post]
func CreatePointHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreatePointRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		dp, err := createDropPoint(reqCtx, db, &model.DropPoint{Number: req.Number})
		if err != nil {
			if isUniqueViolation(err) {
				return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already exists"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		loc, err := addLocation(reqCtx, db, &model.Location{
			Number:      dp.Number,
			StartTime:   dp.CreatedAt,
			Description: req.Description,
			Lat:         *req.Lat,
			Lng:         *req.Lng,
			Level:       *req.Level,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		crates := model.DefaultCrateCount
		if req.Crates != nil {
			crates = *req.Crates
		}
		capRec, err := addCapacity(reqCtx, db, &model.Capacity{
			Number:    dp.Number,
			StartTime: dp.CreatedAt,
			Crates:    crates,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)

		st := &service.PointStatus{Point: *dp, Location: loc, Crates: capRec.Crates}
		return c.JSON(http.StatusCreated, statusResponse(st, timeNow()))
	}
}

// @Summary     List drop points
// @Description 列出所有 drop point 的目前狀態與優先度
// @Tags        points
// @Produce     json
// @Success     200 {array}  api.PointResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points [get]
func ListPointsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		statuses, err := loadAllStatuses(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		now := timeNow()
		resp := make([]api.PointResponse, 0, len(statuses))
		for i := range statuses {
			resp = append(resp, statusResponse(&statuses[i], now))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// @Summary     Get a drop point
// @Description 取得單一 drop point 的目前狀態與優先度
// @Tags        points
// @Produce     json
// @Param       number path int true "編號"
// @Success     200 {object} api.PointResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points/{number} [get]
func GetPointHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
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
		st, err := loadPointStatus(c.Request().Context(), db, *dp)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, statusResponse(st, timeNow()))
	}
}

// @Summary     Remove a drop point
// @Description 標記 drop point 為已移除，編號不再重複使用
// @Tags        points
// @Param       number path  int    true  "編號"
// @Param       time   query string false "移除時間 RFC3339，省略為現在"
// @Success     204 "No Content"
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points/{number} [delete]
func RemovePointHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		var req api.RemovePointRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		at, err := parseEventTime(req.Time, timeNow())
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		dp, err := getDropPoint(reqCtx, db, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if dp.Removed != nil {
			return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already removed"})
		}

		if err := removeDropPoint(reqCtx, db, number, at); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already removed"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)
		return c.NoContent(http.StatusNoContent)
	}
}

// @Summary     Relocate a drop point
// @Description 為 drop point 新增一筆位置紀錄，最新紀錄即為目前位置
// @Tags        points
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       number      path     int    true  "編號"
// @Param       description formData string false "位置描述"
// @Param       lat         formData number true  "緯度"
// @Param       lng         formData number true  "經度"
// @Param       level       formData int    true  "樓層"
// @Param       start_time  formData string false "生效時間 RFC3339，省略為現在"
// @Success     201 {object} model.Location
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points/{number}/location [put]
func AddLocationHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		var req api.LocationRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		at, err := parseEventTime(req.StartTime, timeNow())
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		dp, err := getDropPoint(reqCtx, db, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if dp.Removed != nil {
			return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already removed"})
		}

		// 位置紀錄必須維持時間順序，否則「最新一筆」會失真
		prev, err := latestLocation(reqCtx, db, number)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if prev != nil && !at.After(prev.StartTime) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "start time not after current location"})
		}

		loc, err := addLocation(reqCtx, db, &model.Location{
			Number:      number,
			StartTime:   at,
			Description: req.Description,
			Lat:         *req.Lat,
			Lng:         *req.Lng,
			Level:       *req.Level,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)
		return c.JSON(http.StatusCreated, loc)
	}
}

// @Summary     Update drop point capacity
// @Description 為 drop point 新增一筆箱數紀錄
// @Tags        points
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       number     path     int    true  "編號"
// @Param       crates     formData int    false "箱數，省略為預設值"
// @Param       start_time formData string false "生效時間 RFC3339，省略為現在"
// @Success     201 {object} model.Capacity
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points/{number}/capacity [put]
func AddCapacityHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		var req api.CapacityRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}
		at, err := parseEventTime(req.StartTime, timeNow())
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		dp, err := getDropPoint(reqCtx, db, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if dp.Removed != nil {
			return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already removed"})
		}

		prev, err := latestCapacity(reqCtx, db, number)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if prev != nil && !at.After(prev.StartTime) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "start time not after current capacity"})
		}

		crates := model.DefaultCrateCount
		if req.Crates != nil {
			crates = *req.Crates
		}
		capRec, err := addCapacity(reqCtx, db, &model.Capacity{
			Number:    number,
			StartTime: at,
			Crates:    crates,
		})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)
		return c.JSON(http.StatusCreated, capRec)
	}
}

// @Summary     Report drop point state
// @Description 訪客回報 drop point 目前的裝瓶狀態，不需登入
// @Tags        points
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       number path     int    true  "編號"
// @Param       state  formData string false "狀態，省略為 DEFAULT"
// @Param       time   formData string false "回報時間 RFC3339，省略為現在"
// @Success     201 {object} model.Report
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     409 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Router      /points/{number}/report [post]
func ReportHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		var req api.ReportRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		state := req.State
		if state == "" {
			state = "DEFAULT"
		}
		if !model.ValidReportState(state) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid report state"})
		}
		at, err := parseEventTime(req.Time, timeNow())
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		dp, err := getDropPoint(reqCtx, db, number)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		if dp.Removed != nil {
			return c.JSON(http.StatusConflict, api.ErrorResponse{Message: "drop point already removed"})
		}

		rep, err := addReport(reqCtx, db, &model.Report{Number: number, Time: at, State: state})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)
		return c.JSON(http.StatusCreated, rep)
	}
}

// @Summary     Log a visit
// @Description 收瓶人員登記巡視結果，巡視後新回報歸零
// @Tags        points
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       number path     int    true  "編號"
// @Param       action formData string false "動作，省略為 EMPTIED"
// @Param       time   formData string false "巡視時間 RFC3339，省略為現在"
// @Success     201 {object} model.Visit
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /points/{number}/visit [post]
func VisitHandler(db database.DB, rdb cache.Cache, wp worker.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		number, err := paramNumber(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid point number"})
		}
		var req api.VisitRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		action := req.Action
		if action == "" {
			action = "EMPTIED"
		}
		if !model.ValidVisitAction(action) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid visit action"})
		}
		at, err := parseEventTime(req.Time, timeNow())
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		reqCtx := c.Request().Context()
		if _, err := getDropPoint(reqCtx, db, number); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "drop point not found"})
			}
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		visit, err := addVisit(reqCtx, db, &model.Visit{Number: number, Time: at, Action: action})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}

		submitRefresh(wp, db, rdb)
		return c.JSON(http.StatusCreated, visit)
	}
}

// @Summary     Drop point map data
// @Description 以 GeoJSON 輸出所有 drop point，供地圖前端使用，不需登入
// @Tags        points
// @Produce     json
// @Success     200 {object} service.FeatureCollection
// @Failure     500 {object} api.ErrorResponse
// @Router      /points.geojson [get]
func GeoJSONHandler(db database.DB, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqCtx := c.Request().Context()
		if data, err := rdb.Get(reqCtx, service.GeoJSONKey).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, data)
		}
		// 快取未命中或 Redis 故障時直接重算
		data, err := refreshGeoJSON(reqCtx, db, rdb)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: err.Error()})
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}
