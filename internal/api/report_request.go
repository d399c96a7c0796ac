package api

// swagger:model api.ReportRequest
type ReportRequest struct {
	State string `form:"state" example:"FULL"`
	// 以 RFC3339 表示的回報時間，省略時為現在
	Time string `form:"time" example:"2026-08-26T15:04:05Z"`
}
