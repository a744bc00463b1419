package booth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"velvetlens/internal/camera"
	"velvetlens/internal/filter"
)

// CapturePulse はUI側で撮影を知らせる表示の長さの目安
const CapturePulse = 200 * time.Millisecond

// SourceState は映像ソースの接続状態
type SourceState string

// SourceState の定数定義
const (
	SourceDetached    SourceState = "detached"    // ソース未設定
	SourcePending     SourceState = "pending"     // 準備中
	SourceReady       SourceState = "ready"       // 準備完了
	SourceUnavailable SourceState = "unavailable" // 利用不可
)

// Observer はセッションからUI側への通知を受け取る
type Observer interface {
	// CaptureAcknowledged は撮影直後に呼ばれる
	CaptureAcknowledged(a Artifact)

	// ReelChanged は表示状態が変わったときに呼ばれる
	ReelChanged(m DisplayModel)

	// SourceUnavailable は映像ソースが利用できないと確定したときに一度だけ呼ばれる
	SourceUnavailable(err error)

	// Exported は書き出しが完了したときに呼ばれる
	Exported(c *Composite)
}

// ObserverFuncs は必要な通知だけを関数で受け取る Observer 実装
type ObserverFuncs struct {
	OnCapture           func(a Artifact)
	OnReelChanged       func(m DisplayModel)
	OnSourceUnavailable func(err error)
	OnExported          func(c *Composite)
}

// CaptureAcknowledged は撮影通知を転送する
func (o ObserverFuncs) CaptureAcknowledged(a Artifact) {
	if o.OnCapture != nil {
		o.OnCapture(a)
	}
}

// ReelChanged は表示状態の変更通知を転送する
func (o ObserverFuncs) ReelChanged(m DisplayModel) {
	if o.OnReelChanged != nil {
		o.OnReelChanged(m)
	}
}

// SourceUnavailable はソース利用不可の通知を転送する
func (o ObserverFuncs) SourceUnavailable(err error) {
	if o.OnSourceUnavailable != nil {
		o.OnSourceUnavailable(err)
	}
}

// Exported は書き出し完了通知を転送する
func (o ObserverFuncs) Exported(c *Composite) {
	if o.OnExported != nil {
		o.OnExported(c)
	}
}

// Session は現在のフィルターとリールを持つ1人分のフォトブース
type Session struct {
	id        uuid.UUID
	createdAt time.Time

	engine   *Engine
	exporter *Exporter
	reel     *Reel

	mu          sync.Mutex
	filter      filter.ID
	source      FrameSource
	sourceState SourceState
	sourceErr   error
	observers   []Observer
}

// NewSession は新しいSessionを作成する
func NewSession(cfg Config, clock Clock) *Session {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = SystemClock
	}
	return &Session{
		id:          uuid.New(),
		createdAt:   clock.Now(),
		engine:      NewEngine(cfg, clock),
		exporter:    NewExporter(cfg, clock),
		reel:        NewReel(cfg.ReelCapacity),
		filter:      filter.None,
		sourceState: SourceDetached,
	}
}

// ID はセッションIDを返す
func (s *Session) ID() uuid.UUID { return s.id }

// CreatedAt は作成時刻を返す
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Observe は通知先を追加する
func (s *Session) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// SelectFilter は次の撮影とプレビューに使うフィルターを設定する
func (s *Session) SelectFilter(id filter.ID) error {
	parsed, err := filter.Parse(string(id))
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.filter = parsed
	model := s.displayModelLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	for _, o := range observers {
		o.ReelChanged(model)
	}
	return nil
}

// Filter は現在のフィルターを返す
func (s *Session) Filter() filter.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// AttachSource はセッションの映像ソースを設定する
// 取得に失敗した場合は撮影を無効にし、通知を一度だけ送る
func (s *Session) AttachSource(acq *camera.Acquisition) {
	s.mu.Lock()
	s.source = acq.Source()
	s.sourceState = SourcePending
	s.sourceErr = nil
	s.mu.Unlock()

	go func() {
		<-acq.Done()
		s.resolveSource(acq.Source(), acq.Err())
	}()
}

func (s *Session) resolveSource(src FrameSource, err error) {
	s.mu.Lock()
	if s.source != src {
		// 別のソースに差し替え済み
		s.mu.Unlock()
		return
	}
	if err == nil {
		s.sourceState = SourceReady
	} else {
		s.sourceState = SourceUnavailable
		s.sourceErr = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	sourceErr := s.sourceErr
	model := s.displayModelLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	if sourceErr != nil {
		log.Printf("セッション %s の映像ソースが利用できません: %v", s.id, err)
		for _, o := range observers {
			o.SourceUnavailable(sourceErr)
		}
	}
	for _, o := range observers {
		o.ReelChanged(model)
	}
}

// SourceState は映像ソースの状態と、利用不可の場合はその理由を返す
func (s *Session) SourceState() (SourceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceState, s.sourceErr
}

// Capture は撮影してリールに追加する
// srcがnilの場合はセッションの映像ソースを使う
// ソースが準備完了でない場合は何もせず (false, nil) を返す
func (s *Session) Capture(ctx context.Context, src FrameSource) (bool, error) {
	s.mu.Lock()
	if src == nil {
		if s.sourceState != SourceReady {
			s.mu.Unlock()
			return false, nil
		}
		src = s.source
	}

	artifact, err := s.engine.Capture(ctx, src, s.filter)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrCaptureRefused) {
			return false, nil
		}
		return false, fmt.Errorf("撮影に失敗: %w", err)
	}

	s.reel.Insert(artifact)
	model := s.displayModelLocked()
	observers := s.observersLocked()
	s.mu.Unlock()

	for _, o := range observers {
		o.CaptureAcknowledged(artifact)
		o.ReelChanged(model)
	}
	return true, nil
}

// Reel はリールの内容を新しい順に返す
func (s *Session) Reel() []Artifact {
	return s.reel.Snapshot()
}

// DisplayModel は現在の表示状態を返す
func (s *Session) DisplayModel() DisplayModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayModelLocked()
}

func (s *Session) displayModelLocked() DisplayModel {
	model := Render(s.reel.Snapshot())
	model.Filter = s.filter
	model.PreviewCSS = filter.EffectFor(s.filter).CSS()
	model.PulseMillis = int(CapturePulse / time.Millisecond)

	switch s.sourceState {
	case SourceUnavailable:
		model.Alert = sourceUnavailable
		model.CaptureEnabled = false
	case SourcePending:
		model.CaptureEnabled = false
	default:
		model.CaptureEnabled = true
	}
	return model
}

func (s *Session) observersLocked() []Observer {
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}

// Export はリールを1枚の画像に書き出す
// リールが空の場合は (nil, nil) を返す
func (s *Session) Export(ctx context.Context) (*Composite, error) {
	s.mu.Lock()
	exporter := s.exporter
	observers := s.observersLocked()
	s.mu.Unlock()

	composite, err := exporter.Export(ctx, s.reel.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("書き出しに失敗: %w", err)
	}
	if composite == nil {
		return nil, nil
	}

	for _, o := range observers {
		o.Exported(composite)
	}
	return composite, nil
}
