package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"sync"
	"time"
)

// testCaptureTimeout は開始時のテストキャプチャの制限時間
const testCaptureTimeout = 10 * time.Second

// frameCapturer はStreamSourceが使うキャプチャ処理
type frameCapturer interface {
	TestCapture(ctx context.Context) ([]byte, error)
	StartStream(ctx context.Context, frames chan<- []byte) error
}

// StreamSource はffmpegで連続キャプチャする Streamer 実装
// USBカメラとX11画面に対応し、最新フレームを保持する
type StreamSource struct {
	info     Info
	settings Settings
	capturer frameCapturer

	// テストキャプチャの制限時間
	startTimeout time.Duration

	status Status
	mu     sync.RWMutex

	// 最新フレーム保持用（撮影用）
	latestFrame []byte
	latestMutex sync.RWMutex

	// プレビュー購読者
	subscribers map[chan []byte]struct{}
	subMutex    sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUSBSource はUSBカメラのStreamSourceを作成する
func NewUSBSource(device string, settings Settings) *StreamSource {
	info := Info{
		ID:     fmt.Sprintf("camera_%d", time.Now().UnixNano()),
		Name:   fmt.Sprintf("USB Camera (%s)", device),
		Device: device,
		Driver: "v4l2",
	}
	return newStreamSource(info, NewV4L2Capturer(device, settings), settings)
}

// NewScreenSource はX11画面のStreamSourceを作成する
func NewScreenSource(display string, settings Settings) *StreamSource {
	info := Info{
		ID:     fmt.Sprintf("screen_%d", time.Now().UnixNano()),
		Name:   fmt.Sprintf("Screen (%s)", display),
		Device: display,
		Driver: "x11",
	}
	return newStreamSource(info, NewX11Capturer(display, settings), settings)
}

func newStreamSource(info Info, capturer frameCapturer, settings Settings) *StreamSource {
	return &StreamSource{
		info:         info,
		settings:     settings,
		capturer:     capturer,
		startTimeout: testCaptureTimeout,
		status:       StatusInactive,
		subscribers:  make(map[chan []byte]struct{}),
	}
}

// SetName は表示名を設定する
func (s *StreamSource) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.info.Name = name
	}
}

// Start はテストキャプチャを行い、成功したらストリーミングを開始する
// テストキャプチャは testCaptureTimeout で打ち切る
func (s *StreamSource) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case StatusActive:
		s.mu.Unlock()
		return nil // 既に開始済み
	case StatusStarting:
		s.mu.Unlock()
		return fmt.Errorf("カメラは開始処理中です: %w", ErrNotReady)
	}
	s.status = StatusStarting
	s.mu.Unlock()

	// テストキャプチャ中はロックを持たない
	testCtx, cancel := context.WithTimeout(ctx, s.startTimeout)
	first, err := s.capturer.TestCapture(testCtx)
	cancel()
	if err != nil {
		s.mu.Lock()
		if s.status == StatusStarting {
			s.status = StatusError
		}
		s.mu.Unlock()
		return fmt.Errorf("カメラのテストキャプチャに失敗: %w", err)
	}
	s.storeLatest(first)

	s.mu.Lock()
	defer s.mu.Unlock()

	// テストキャプチャ中にStopされた
	if s.status != StatusStarting {
		return fmt.Errorf("カメラの開始中に停止されました: %w", ErrNotReady)
	}

	// ストリームはStartの呼び出し元コンテキストから切り離して管理する
	streamCtx, streamCancel := context.WithCancel(context.Background())
	s.cancel = streamCancel

	frames := make(chan []byte, 10)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer close(frames)
		if err := s.capturer.StartStream(streamCtx, frames); err != nil {
			log.Printf("カメラストリームが停止しました (%s): %v", s.info.Device, err)
			s.setStatus(StatusError)
		}
	}()
	go s.forwardFrames(frames)

	s.status = StatusActive
	log.Printf("カメラを開始しました: %s (%dx%d)", s.info.Device, s.settings.Width, s.settings.Height)
	return nil
}

// Stop はストリーミングを停止する
func (s *StreamSource) Stop(_ context.Context) error {
	s.mu.Lock()
	if s.status == StatusInactive {
		s.mu.Unlock()
		return nil // 既に停止済み
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	// ストリームのゴルーチンがsetStatusを呼べるようにロック外で待つ
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.subMutex.Lock()
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
	s.subMutex.Unlock()

	s.setStatus(StatusInactive)
	return nil
}

// Ready は最新フレームがありストリームが動作中かを返す
func (s *StreamSource) Ready() bool {
	if s.Status() != StatusActive {
		return false
	}
	s.latestMutex.RLock()
	defer s.latestMutex.RUnlock()
	return s.latestFrame != nil
}

// Frame は最新フレームをデコードして返す
func (s *StreamSource) Frame(_ context.Context) (image.Image, error) {
	if s.Status() != StatusActive {
		return nil, ErrNotReady
	}

	s.latestMutex.RLock()
	data := s.latestFrame
	s.latestMutex.RUnlock()

	if data == nil {
		return nil, ErrNotReady
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("JPEG画像のデコードに失敗: %w", err)
	}
	return img, nil
}

// Status は現在の状態を返す
func (s *StreamSource) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Info はソース情報を返す
func (s *StreamSource) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Subscribe はJPEGフレームの購読を開始する
func (s *StreamSource) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 2)

	s.subMutex.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMutex.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMutex.Lock()
			defer s.subMutex.Unlock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
}

func (s *StreamSource) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *StreamSource) storeLatest(frame []byte) {
	s.latestMutex.Lock()
	defer s.latestMutex.Unlock()
	s.latestFrame = frame
}

// forwardFrames は最新フレームを更新し、購読者へ配信する
func (s *StreamSource) forwardFrames(frames <-chan []byte) {
	defer s.wg.Done()

	for frame := range frames {
		s.storeLatest(frame)
		s.broadcast(frame)
	}
}

// broadcast は購読者へフレームを送る。遅い購読者は古いフレームを破棄する
func (s *StreamSource) broadcast(frame []byte) {
	s.subMutex.Lock()
	defer s.subMutex.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- frame:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}
