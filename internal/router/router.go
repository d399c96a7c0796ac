// File: internal/router/router.go
package router

import (
	"github.com/labstack/echo/v4"

	"bottledrop/internal/cache"
	"bottledrop/internal/database"
	"bottledrop/internal/handler"
	"bottledrop/internal/handler/auth"
	"bottledrop/internal/handler/labels"
	"bottledrop/internal/handler/points"
	"bottledrop/internal/handler/users"
	"bottledrop/internal/middleware"
	"bottledrop/internal/worker"
)

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, db database.DB, rdb cache.Cache, wp worker.Pool, baseURL string) {
	api := e.Group("/api")

	// 健康檢查
	api.GET("/ping", handler.PingHandler(db, rdb))

	// 使用者登入
	api.POST("/auth/login", auth.LoginHandler(db))

	// 管理員專屬 Users 管理
	apiUsers := api.Group("/users", middleware.RequireAdmin(rdb))
	apiUsers.GET("", users.ListUsersHandler(db))
	apiUsers.POST("", users.CreateUserHandler(db))
	apiUsers.POST("/:user_id/enable", users.EnableUserHandler(db, rdb))
	apiUsers.POST("/:user_id/disable", users.DisableUserHandler(db, rdb))
	apiUsers.PUT("/:user_id/permissions", users.UpdatePermissionsHandler(db))
	apiUsers.PUT("/:user_id/password", users.SetPasswordHandler(db))
	apiUsers.DELETE("/:user_id", users.DeleteUserHandler(db, rdb))

	// 當前使用者個人資料
	apiUsersMe := api.Group("/users/me", middleware.RequireAuth(rdb))
	apiUsersMe.GET("", users.GetMyUserHandler(db))
	apiUsersMe.PATCH("/password", users.UpdateMyPasswordHandler(db))

	// Drop point 管理；回報與地圖不需登入
	api.POST("/points", points.CreatePointHandler(db, rdb, wp), middleware.RequireEdit(rdb))
	api.GET("/points", points.ListPointsHandler(db), middleware.RequireAuth(rdb))
	api.GET("/points.geojson", points.GeoJSONHandler(db, rdb))
	api.GET("/points/:number", points.GetPointHandler(db), middleware.RequireAuth(rdb))
	api.DELETE("/points/:number", points.RemovePointHandler(db, rdb, wp), middleware.RequireEdit(rdb))
	api.PUT("/points/:number/location", points.AddLocationHandler(db, rdb, wp), middleware.RequireEdit(rdb))
	api.PUT("/points/:number/capacity", points.AddCapacityHandler(db, rdb, wp), middleware.RequireEdit(rdb))
	api.POST("/points/:number/report", points.ReportHandler(db, rdb, wp))
	api.POST("/points/:number/visit", points.VisitHandler(db, rdb, wp), middleware.RequireVisit(rdb))

	// 標籤列印
	apiLabels := api.Group("/labels", middleware.RequireVisit(rdb))
	apiLabels.GET("/points.pdf", labels.AllLabelsPDFHandler(db, baseURL))
	apiLabels.GET("/points.zip", labels.AllLabelsZipHandler(db, baseURL))
	apiLabels.GET("/points/:number", labels.PointLabelPDFHandler(db, baseURL))
}
