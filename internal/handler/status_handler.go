package handler

import (
	"encoding/json"
	"net/http"
)

// StatusHandler は稼働状態確認のHTTPハンドラー。
type StatusHandler struct{}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

// statusResponse は稼働状態のAPIレスポンス。
type statusResponse struct {
	Status string `json:"status"`
}

// GetStatus はノードの稼働状態を返す。
// GET /api/v3/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{Status: "UP"})
}
