package server

import (
	"context"
	"log"

	"velvetlens/internal/booth"
	"velvetlens/internal/camera"
	"velvetlens/internal/config"
)

// Setup は設定からカメラとセッション管理を準備してServerを作成する
func Setup(ctx context.Context, cfg *config.Config) *Server {
	src, err := camera.Open(ctx, camera.NewLinuxDiscovery(), cfg.CameraOptions())
	if err != nil {
		return newWithCamera(ctx, cfg, nil, err)
	}
	return newWithCamera(ctx, cfg, src, nil)
}

// newWithCamera はカメラを開いた結果をセッション管理に設定してServerを作成する
// カメラを開けなかった場合、各セッションには利用不可として通知し、
// アップロードされたフレームだけで撮影できる
func newWithCamera(ctx context.Context, cfg *config.Config, src camera.Source, openErr error) *Server {
	manager := booth.NewManager(cfg.Booth, nil)

	if openErr != nil {
		log.Printf("共有カメラなしで起動します: %v", openErr)
		manager.SetSource(camera.Resolved(nil, openErr))
		return New(cfg, manager, nil)
	}

	// カメラの準備はバックグラウンドで行い、各セッションは完了を待って撮影を有効にする
	manager.SetSource(camera.Acquire(ctx, src))
	return New(cfg, manager, src)
}
