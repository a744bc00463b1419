package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"velvetlens/internal/booth"
	"velvetlens/internal/camera"
)

// 設定ファイルのパスを指定する環境変数
const configPathEnv = "VELVETLENS_CONFIG"

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Camera CameraConfig `yaml:"camera"`
	Booth  booth.Config `yaml:"booth"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	Driver  string `yaml:"driver"`  // v4l2 (USBカメラ) または x11 (画面キャプチャ)
	Device  string `yaml:"device"`  // デバイスパス (例: /dev/video0)。空なら自動検出
	Display string `yaml:"display"` // X11ディスプレイ (例: :0)
	Name    string `yaml:"name"`    // 表示名

	FPS    int `yaml:"fps"`    // フレームレート (fps)
	Width  int `yaml:"width"`  // 画像幅
	Height int `yaml:"height"` // 画像高さ
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			Driver:  camera.DriverV4L2,
			Display: ":0",
			FPS:     15,
			Width:   640,
			Height:  480,
		},
		Booth: booth.DefaultConfig(),
	}
}

// Load は設定を読み込む
// デフォルト値に設定ファイル（VELVETLENS_CONFIG）と環境変数を順に重ねる
func Load() (*Config, error) {
	return load(os.Getenv(configPathEnv))
}

// LoadFile はYAMLファイルから設定を読み込む
// ファイルにない項目はデフォルト値のまま。環境変数は Load と同じくファイルより優先する
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("設定ファイルが指定されていません")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.merge(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// merge はYAMLファイルの内容を現在の設定に重ねる
func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("設定ファイルの解析に失敗 (%s): %w", path, err)
	}
	return nil
}

// applyEnv は環境変数の値で設定を上書きする
func (c *Config) applyEnv() {
	c.Server.Host = getEnvOrDefault("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsIntOrDefault("PORT", c.Server.Port)
	c.Camera.Device = getEnvOrDefault("CAMERA_DEVICE", c.Camera.Device)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// カメラ設定の検証
	if c.Camera.Driver != camera.DriverV4L2 && c.Camera.Driver != camera.DriverX11 {
		return fmt.Errorf("未対応のカメラドライバー: %q", c.Camera.Driver)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("無効なカメラ解像度: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("無効なフレームレート: %d", c.Camera.FPS)
	}

	// フォトブース設定の検証
	if c.Booth.ReelCapacity <= 0 {
		return fmt.Errorf("無効なリール枚数: %d", c.Booth.ReelCapacity)
	}
	if c.Booth.PhotoWidth <= 0 || c.Booth.PhotoHeight <= 0 {
		return fmt.Errorf("無効な写真サイズ: %dx%d", c.Booth.PhotoWidth, c.Booth.PhotoHeight)
	}
	if c.Booth.Spacing < 0 || c.Booth.Padding < 0 {
		return fmt.Errorf("無効な余白: spacing=%d padding=%d", c.Booth.Spacing, c.Booth.Padding)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CameraOptions はカメラ設定からソースの作成オプションを返す
func (c *Config) CameraOptions() camera.Options {
	return camera.Options{
		Driver:  c.Camera.Driver,
		Device:  c.Camera.Device,
		Display: c.Camera.Display,
		Name:    c.Camera.Name,
		Settings: camera.Settings{
			Width:  c.Camera.Width,
			Height: c.Camera.Height,
			FPS:    c.Camera.FPS,
		},
	}
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
