package camera

import (
	"context"
	"errors"
	"image"
)

// Status はフレームソースの動作状態を表す
type Status string

const (
	StatusInactive Status = "inactive" // 停止中
	StatusStarting Status = "starting" // テストキャプチャ中
	StatusActive   Status = "active"   // 動作中
	StatusError    Status = "error"    // エラーが発生
)

// ErrNotReady はフレームがまだ取得できない場合のエラー
var ErrNotReady = errors.New("frame source not ready")

// Source はフォトブースにフレームを供給する映像ソース
type Source interface {
	// Start はソースを開始する。準備完了か失敗が確定するまでブロックする
	Start(ctx context.Context) error

	// Stop はソースを停止する
	Stop(ctx context.Context) error

	// Ready はフレームを取得できる状態かを返す
	Ready() bool

	// Frame は現在のフレームを返す
	Frame(ctx context.Context) (image.Image, error)

	// Status は現在の状態を返す
	Status() Status

	// Info はソース情報を返す
	Info() Info
}

// Streamer はJPEGフレームを連続配信できるソース
type Streamer interface {
	Source

	// Subscribe はJPEGフレームの購読を開始する。返された関数で購読を解除する
	Subscribe() (<-chan []byte, func())
}

// Info はソース情報を表す
type Info struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Device string `json:"device,omitempty"` // デバイスパス（USBカメラ等）
	Driver string `json:"driver"`
}

// Settings はキャプチャ設定
type Settings struct {
	Width  int // 画像幅
	Height int // 画像高さ
	FPS    int // フレームレート
}

// DefaultSettings はフォトブース用のデフォルト設定を返す
func DefaultSettings() Settings {
	return Settings{Width: 640, Height: 480, FPS: 15}
}
