package api

// swagger:model api.RemovePointRequest
type RemovePointRequest struct {
	// 以 RFC3339 表示的移除時間，省略時為現在
	Time string `query:"time" example:"2026-08-26T15:04:05Z"`
}
