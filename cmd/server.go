// Package main はVelvetLensサーバーコマンドの実装です
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"velvetlens/internal/config"
	"velvetlens/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		configPath = flag.StringP("config", "c", "", "設定ファイル (YAML)")
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.IntP("port", "p", 0, "サーバーのポート (デフォルト: 8080)")
		driver     = flag.String("driver", "", "カメラドライバー (v4l2 または x11)")
		device     = flag.String("device", "", "カメラデバイス (デフォルト: 自動検出)")
		exportDir  = flag.String("export-dir", "", "書き出し画像の保存先")
		help       = flag.BoolP("help", "h", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("VelvetLens")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *driver != "" {
		cfg.Camera.Driver = *driver
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *exportDir != "" {
		cfg.Booth.ExportDir = *exportDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを作成
	srv := server.Setup(ctx, cfg)

	// サーバーを起動
	log.Printf("VelvetLens サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
