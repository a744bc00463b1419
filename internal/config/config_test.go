package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"velvetlens/internal/booth"
)

// clearEnv は設定に影響する環境変数を空にする
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(configPathEnv, "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CAMERA_DEVICE", "")
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "velvetlens.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("設定ファイルの作成に失敗しました: %v", err)
	}
	return path
}

// TestConfigLoad は設定の読み込みをテストする
func TestConfigLoad(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CAMERA_DEVICE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// サーバー設定の検証
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("サーバーホストが不正です: %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("ポート番号が不正です: %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout <= 0 {
		t.Error("読み込みタイムアウトが設定されていません")
	}
	// WriteTimeout は 0（無効）でも正常
	if cfg.Server.WriteTimeout < 0 {
		t.Error("書き込みタイムアウトが負の値です")
	}

	// カメラ設定の検証
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("カメラ解像度が不正です: %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.Device != "" {
		t.Errorf("デバイスは自動検出のはずです: %s", cfg.Camera.Device)
	}

	// フォトブース設定の検証
	if cfg.Booth != booth.DefaultConfig() {
		t.Errorf("フォトブース設定がデフォルトと異なります: %+v", cfg.Booth)
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name      string
		modify    func(c *Config)
		expectErr bool
	}{
		{
			name:      "正常な設定",
			modify:    func(c *Config) {},
			expectErr: false,
		},
		{
			name:      "無効なポート番号",
			modify:    func(c *Config) { c.Server.Port = 99999 },
			expectErr: true,
		},
		{
			name:      "未対応のドライバー",
			modify:    func(c *Config) { c.Camera.Driver = "dshow" },
			expectErr: true,
		},
		{
			name:      "画面キャプチャ",
			modify:    func(c *Config) { c.Camera.Driver = "x11" },
			expectErr: false,
		},
		{
			name:      "カメラ解像度なし",
			modify:    func(c *Config) { c.Camera.Width = 0 },
			expectErr: true,
		},
		{
			name:      "フレームレートなし",
			modify:    func(c *Config) { c.Camera.FPS = 0 },
			expectErr: true,
		},
		{
			name:      "リール枚数なし",
			modify:    func(c *Config) { c.Booth.ReelCapacity = 0 },
			expectErr: true,
		},
		{
			name:      "負の余白",
			modify:    func(c *Config) { c.Booth.Padding = -1 },
			expectErr: true,
		},
		{
			name:      "余白ゼロ",
			modify:    func(c *Config) { c.Booth.Spacing = 0 },
			expectErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestServerAddress はサーバーアドレスの生成をテストする
func TestServerAddress(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "192.168.1.100",
			Port: 9090,
		},
	}

	expected := "192.168.1.100:9090"
	actual := cfg.ServerAddress()

	if actual != expected {
		t.Errorf("サーバーアドレスが一致しません: got %s, want %s", actual, expected)
	}
}

// TestEnvironmentVariables は環境変数の処理をテストする
// 注意: このテストは環境変数を変更するため、parallelは使わない
func TestEnvironmentVariables(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv("SERVER_HOST", "test.example.com")
	t.Setenv("PORT", "9999")
	t.Setenv("CAMERA_DEVICE", "/dev/video2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "test.example.com" {
		t.Errorf("環境変数のホストが反映されていません: got %s, want test.example.com", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("環境変数のポートが反映されていません: got %d, want 9999", cfg.Server.Port)
	}
	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("環境変数のデバイスが反映されていません: got %s, want /dev/video2", cfg.Camera.Device)
	}
}

// TestLoadFile はYAMLファイルからの読み込みをテストする
func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
server:
  port: 9000
  read_timeout: 5s
camera:
  device: /dev/video1
  fps: 30
booth:
  reel_capacity: 4
  export_dir: /tmp/reels
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("ポートが反映されていません: got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("読み込みタイムアウトが反映されていません: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Camera.Device != "/dev/video1" || cfg.Camera.FPS != 30 {
		t.Errorf("カメラ設定が反映されていません: %+v", cfg.Camera)
	}
	// ファイルにない項目はデフォルトのまま
	if cfg.Camera.Width != 640 {
		t.Errorf("カメラ幅がデフォルトではありません: got %d", cfg.Camera.Width)
	}
	if cfg.Booth.ReelCapacity != 4 || cfg.Booth.ExportDir != "/tmp/reels" {
		t.Errorf("フォトブース設定が反映されていません: %+v", cfg.Booth)
	}
	if cfg.Booth.FilenamePrefix != "velvetlens-reel" {
		t.Errorf("ファイル名の接頭辞がデフォルトではありません: got %s", cfg.Booth.FilenamePrefix)
	}
}

// TestLoadFileErrors は不正な設定ファイルをテストする
func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	testCases := []struct {
		name    string
		content string
	}{
		{name: "未知の項目", content: "server:\n  unknown: 1\n"},
		{name: "型の不一致", content: "server:\n  port: abc\n"},
		{name: "検証エラー", content: "booth:\n  reel_capacity: -1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfigFile(t, tc.content)); err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("存在しないファイルでエラーになりませんでした")
	}
	if _, err := LoadFile(""); err == nil {
		t.Error("パスなしでエラーになりませんでした")
	}
}

// TestLoadFileWithEnvironment はLoadFileでも環境変数が設定ファイルより優先されることをテストする
func TestLoadFileWithEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server:\n  host: 127.0.0.1\n  port: 9000\ncamera:\n  device: /dev/video1\n")
	t.Setenv("PORT", "9100")
	t.Setenv("CAMERA_DEVICE", "/dev/video3")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("設定ファイルのホストが反映されていません: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("環境変数のポートが優先されていません: got %d", cfg.Server.Port)
	}
	if cfg.Camera.Device != "/dev/video3" {
		t.Errorf("環境変数のデバイスが優先されていません: got %s", cfg.Camera.Device)
	}

	// Loadで同じファイルを指定した場合と一致する
	t.Setenv(configPathEnv, path)
	viaEnv, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	if *viaEnv != *cfg {
		t.Errorf("LoadとLoadFileの結果が異なります: %+v, %+v", viaEnv, cfg)
	}
}

// TestLoadWithConfigFile は環境変数で指定した設定ファイルと環境変数の優先順位をテストする
func TestLoadWithConfigFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  host: 127.0.0.1\n  port: 9000\n")
	t.Setenv(configPathEnv, path)
	t.Setenv("SERVER_HOST", "")
	t.Setenv("PORT", "9100")
	t.Setenv("CAMERA_DEVICE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("設定ファイルのホストが反映されていません: got %s", cfg.Server.Host)
	}
	// 環境変数が設定ファイルより優先される
	if cfg.Server.Port != 9100 {
		t.Errorf("環境変数のポートが優先されていません: got %d", cfg.Server.Port)
	}
}

// TestLoadEmptyFile は空の設定ファイルをテストする
func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(writeConfigFile(t, ""))
	if err != nil {
		t.Fatalf("空の設定ファイルでエラーになりました: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("デフォルトのポートではありません: got %d", cfg.Server.Port)
	}
}
