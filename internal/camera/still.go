package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // image.Decode用
	_ "image/png"  // image.Decode用
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// MaxStillPixels はデコードする画像の最大画素数
const MaxStillPixels = 4096 * 4096

// ErrImageTooLarge は画像の画素数が MaxStillPixels を超える場合のエラー
var ErrImageTooLarge = errors.New("image too large")

// StillSource は固定画像を返す Source 実装
// アップロードされたフレームやCLIの入力画像に使う
type StillSource struct {
	info   Info
	img    image.Image
	status Status
	mu     sync.RWMutex
}

// NewStillSource は画像から開始済みのStillSourceを作成する
func NewStillSource(name string, img image.Image) *StillSource {
	status := StatusActive
	if img == nil {
		status = StatusError
	}
	return &StillSource{
		info: Info{
			ID:     uuid.New().String(),
			Name:   name,
			Driver: "still",
		},
		img:    img,
		status: status,
	}
}

// DecodeStillSource は画像データをデコードしてStillSourceを作成する
// 画素数はヘッダーで確認してからデコードする
func DecodeStillSource(name string, r io.Reader) (*StillSource, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxStillPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗: %w", err)
	}
	src := NewStillSource(name, img)
	src.info.Driver = "still/" + format
	return src, nil
}

// OpenStillSource は画像ファイルからStillSourceを作成する
func OpenStillSource(path string) (*StillSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("画像ファイルを開けません: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	src, err := DecodeStillSource(path, f)
	if err != nil {
		return nil, err
	}
	src.info.Device = path
	return src, nil
}

// Start は画像がある場合に成功する
func (s *StillSource) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.img == nil {
		s.status = StatusError
		return fmt.Errorf("画像がありません: %s", s.info.Name)
	}
	s.status = StatusActive
	return nil
}

// Stop はソースを停止する
func (s *StillSource) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusInactive
	return nil
}

// Ready は画像がありアクティブかを返す
func (s *StillSource) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == StatusActive && s.img != nil
}

// Frame は保持している画像を返す
func (s *StillSource) Frame(_ context.Context) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != StatusActive || s.img == nil {
		return nil, ErrNotReady
	}
	return s.img, nil
}

// Status は現在の状態を返す
func (s *StillSource) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Info はソース情報を返す
func (s *StillSource) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}
