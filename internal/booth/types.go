package booth

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"

	"velvetlens/internal/filter"
)

// エラー定義
var (
	// ErrSourceUnavailable は映像ソースが準備完了にならなかった場合のエラー
	ErrSourceUnavailable = errors.New("frame source unavailable")

	// ErrCaptureRefused はソースが準備完了でないため撮影しなかったことを表す
	ErrCaptureRefused = errors.New("capture refused: source not ready")

	// ErrDecodeFailure は書き出し中に画像のデコードに失敗した場合のエラー
	ErrDecodeFailure = errors.New("artifact decode failed")

	// ErrSessionNotFound は指定されたセッションが存在しない場合のエラー
	ErrSessionNotFound = errors.New("session not found")
)

// FrameSource は撮影に使う映像ソース
type FrameSource interface {
	Ready() bool
	Frame(ctx context.Context) (image.Image, error)
}

// Clock は現在時刻を返す
type Clock interface {
	Now() time.Time
}

// ClockFunc は関数を Clock として使うためのアダプタ
type ClockFunc func() time.Time

// Now は現在時刻を返す
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock は壁時計
var SystemClock Clock = ClockFunc(time.Now)

// Artifact はフィルターを焼き込んだ撮影済み画像とメタデータ
// 作成後は変更しない
type Artifact struct {
	id         uuid.UUID
	pixels     []byte // PNG画像データ
	capturedAt time.Time
	timestamp  string // ロケール形式の撮影時刻
	filter     filter.ID
}

// NewArtifact は新しいArtifactを作成する
func NewArtifact(pixels []byte, capturedAt time.Time, timestamp string, id filter.ID) Artifact {
	data := make([]byte, len(pixels))
	copy(data, pixels)
	return Artifact{
		id:         uuid.New(),
		pixels:     data,
		capturedAt: capturedAt,
		timestamp:  timestamp,
		filter:     id,
	}
}

// ID は識別子を返す
func (a Artifact) ID() uuid.UUID { return a.id }

// CapturedAt は撮影時刻を返す
func (a Artifact) CapturedAt() time.Time { return a.capturedAt }

// Timestamp は表示用の撮影時刻を返す
func (a Artifact) Timestamp() string { return a.timestamp }

// Filter は焼き込まれたフィルターを返す
func (a Artifact) Filter() filter.ID { return a.filter }

// PNG は画像データのコピーを返す
func (a Artifact) PNG() []byte {
	data := make([]byte, len(a.pixels))
	copy(data, a.pixels)
	return data
}

// Size は画像データのサイズを返す
func (a Artifact) Size() int { return len(a.pixels) }

// Composite はリール全体を結合した書き出し画像
type Composite struct {
	Filename  string    `json:"filename"`   // 書き出しファイル名
	Data      []byte    `json:"-"`          // PNG画像データ
	Width     int       `json:"width"`      // 画像幅
	Height    int       `json:"height"`     // 画像高さ
	Count     int       `json:"count"`      // 結合した写真数
	CreatedAt time.Time `json:"created_at"` // 書き出し時刻
}

// Config はフォトブース設定
type Config struct {
	ReelCapacity    int    `yaml:"reel_capacity"`    // リールの最大枚数
	PhotoWidth      int    `yaml:"photo_width"`      // 撮影画像の幅
	PhotoHeight     int    `yaml:"photo_height"`     // 撮影画像の高さ
	Spacing         int    `yaml:"spacing"`          // 書き出し時の写真間隔
	Padding         int    `yaml:"padding"`          // 書き出し時の外周余白
	FilenamePrefix  string `yaml:"filename_prefix"`  // 書き出しファイル名の接頭辞
	TimestampLayout string `yaml:"timestamp_layout"` // 撮影時刻の表示形式
	ExportDir       string `yaml:"export_dir"`       // 書き出し画像の保存先（空なら保存しない）
}

// DefaultConfig はデフォルトのフォトブース設定を返す
func DefaultConfig() Config {
	return Config{
		ReelCapacity:    3,
		PhotoWidth:      640,
		PhotoHeight:     480,
		Spacing:         20,
		Padding:         10,
		FilenamePrefix:  "velvetlens-reel",
		TimestampLayout: "1/2/2006, 3:04:05 PM",
	}
}

// withDefaults は未設定の項目をデフォルト値で埋める
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ReelCapacity <= 0 {
		c.ReelCapacity = def.ReelCapacity
	}
	if c.PhotoWidth <= 0 {
		c.PhotoWidth = def.PhotoWidth
	}
	if c.PhotoHeight <= 0 {
		c.PhotoHeight = def.PhotoHeight
	}
	if c.Spacing < 0 {
		c.Spacing = def.Spacing
	}
	if c.Padding < 0 {
		c.Padding = def.Padding
	}
	if c.FilenamePrefix == "" {
		c.FilenamePrefix = def.FilenamePrefix
	}
	if c.TimestampLayout == "" {
		c.TimestampLayout = def.TimestampLayout
	}
	return c
}
