package camera

import (
	"context"
	"fmt"
)

// ドライバー名
const (
	DriverV4L2 = "v4l2" // USBカメラ
	DriverX11  = "x11"  // X11画面キャプチャ
)

// Options はストリームソースの作成オプション
type Options struct {
	Driver   string
	Device   string // 空なら自動検出
	Display  string
	Name     string // 空ならデバイス名を問い合わせる
	Settings Settings
}

// Open はドライバーに応じたストリームソースを作成する。ソースは開始しない
func Open(ctx context.Context, discovery Discovery, opts Options) (*StreamSource, error) {
	switch opts.Driver {
	case DriverX11:
		return OpenScreen(opts.Display, opts.Name, opts.Settings), nil
	case DriverV4L2, "":
		return OpenUSB(ctx, discovery, opts.Device, opts.Name, opts.Settings)
	default:
		return nil, fmt.Errorf("未対応のドライバー: %q", opts.Driver)
	}
}

// OpenUSB はUSBカメラのソースを作成する
// deviceが空の場合は最初に見つかったデバイスを使い、nameが空の場合はデバイス名を問い合わせる
func OpenUSB(ctx context.Context, discovery Discovery, device, name string, settings Settings) (*StreamSource, error) {
	if device == "" {
		found, err := FirstDevice(ctx, discovery)
		if err != nil {
			return nil, fmt.Errorf("カメラの検出に失敗: %w", err)
		}
		device = found
	}

	if name == "" {
		name = discovery.DeviceName(ctx, device)
	}

	src := NewUSBSource(device, settings)
	src.SetName(name)
	return src, nil
}

// OpenScreen はX11画面のソースを作成する
func OpenScreen(display, name string, settings Settings) *StreamSource {
	if display == "" {
		display = ":0"
	}
	src := NewScreenSource(display, settings)
	src.SetName(name)
	return src
}
