package api

// swagger:model api.VisitRequest
type VisitRequest struct {
	Action string `form:"action" example:"EMPTIED"`
	// 以 RFC3339 表示的巡視時間，省略時為現在
	Time string `form:"time" example:"2026-08-26T15:04:05Z"`
}
