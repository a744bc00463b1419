package booth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"velvetlens/internal/camera"
	"velvetlens/internal/filter"
)

// Engine は映像ソースの現在フレームから撮影画像を作成する
type Engine struct {
	width  int
	height int
	layout string
	clock  Clock
}

// NewEngine は新しいEngineを作成する
func NewEngine(cfg Config, clock Clock) *Engine {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{
		width:  cfg.PhotoWidth,
		height: cfg.PhotoHeight,
		layout: cfg.TimestampLayout,
		clock:  clock,
	}
}

// Capture は現在フレームにフィルターを適用して撮影画像を作成する
// ソースが準備完了でない場合は ErrCaptureRefused を返し、何も作成しない
func (e *Engine) Capture(ctx context.Context, src FrameSource, id filter.ID) (Artifact, error) {
	if src == nil || !src.Ready() {
		return Artifact{}, ErrCaptureRefused
	}

	frame, err := src.Frame(ctx)
	if err != nil {
		if errors.Is(err, camera.ErrNotReady) {
			return Artifact{}, ErrCaptureRefused
		}
		return Artifact{}, fmt.Errorf("フレームの取得に失敗: %w", err)
	}

	// フィルターを描画元に組み込み、描画と同時に調整済みピクセルを書き込む
	surface := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	source := filter.EffectFor(id).Apply(frame)
	xdraw.ApproxBiLinear.Scale(surface, surface.Bounds(), source, frame.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return Artifact{}, fmt.Errorf("PNG エンコードに失敗: %w", err)
	}

	now := e.clock.Now()
	return NewArtifact(buf.Bytes(), now, now.Format(e.layout), id), nil
}
