package server

import (
	"time"

	"velvetlens/internal/booth"
	"velvetlens/internal/camera"
	"velvetlens/internal/filter"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInfo はサーバー情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CameraStatus は共有カメラの状態
type CameraStatus struct {
	Info   camera.Info   `json:"info"`
	Status camera.Status `json:"status"`
	Ready  bool          `json:"ready"`
	Error  *string       `json:"error,omitempty"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status    string        `json:"status"`
	Server    ServerInfo    `json:"server"`
	Sessions  int           `json:"sessions"`
	Camera    *CameraStatus `json:"camera,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// FilterInfo はフィルター一覧の1件
type FilterInfo struct {
	ID  filter.ID `json:"id"`
	CSS string    `json:"css"`
}

// FiltersResponse はフィルター一覧のレスポンス
type FiltersResponse struct {
	Filters []FilterInfo `json:"filters"`
}

// SessionResponse はセッション作成のレスポンス
type SessionResponse struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Display   booth.DisplayModel `json:"display"`
}

// SelectFilterRequest はフィルター選択のリクエスト
type SelectFilterRequest struct {
	Filter string `json:"filter" binding:"required"`
}

// ErrorResponse はエラーレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   *string   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// stringPtr は文字列のポインタを返すヘルパー関数
func stringPtr(s string) *string {
	return &s
}
