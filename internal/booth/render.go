package booth

import (
	"encoding/base64"
	"fmt"

	"velvetlens/internal/filter"
)

// 表示用の定型文
const (
	placeholderTitle  = "No photos captured yet"
	placeholderHint   = `Click "Capture Photo" to start building your reel`
	sourceUnavailable = "Camera access denied or not available. Please allow camera permissions and refresh the page."
)

// DisplayModel はリールの表示状態
type DisplayModel struct {
	Items          []DisplayItem `json:"items"`
	Placeholder    *Placeholder  `json:"placeholder,omitempty"`
	Alert          string        `json:"alert,omitempty"`
	Filter         filter.ID     `json:"filter"`
	PreviewCSS     string        `json:"preview_css"`
	CaptureEnabled bool          `json:"capture_enabled"`
	ExportEnabled  bool          `json:"export_enabled"`
	PulseMillis    int           `json:"pulse_ms"` // 撮影時の表示の長さ
}

// DisplayItem はリール内の1枚の表示情報
type DisplayItem struct {
	ID      string    `json:"id"`
	Image   string    `json:"image"` // data URL
	Alt     string    `json:"alt"`
	Caption string    `json:"caption"`
	Filter  filter.ID `json:"filter"`
}

// Placeholder はリールが空のときの案内
type Placeholder struct {
	Title string `json:"title"`
	Hint  string `json:"hint"`
}

// Render はリールを表示用モデルに変換する
func Render(reel []Artifact) DisplayModel {
	if len(reel) == 0 {
		return DisplayModel{
			Items: []DisplayItem{},
			Placeholder: &Placeholder{
				Title: placeholderTitle,
				Hint:  placeholderHint,
			},
			ExportEnabled: false,
		}
	}

	items := make([]DisplayItem, 0, len(reel))
	for i, a := range reel {
		items = append(items, DisplayItem{
			ID:      a.ID().String(),
			Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(a.pixels),
			Alt:     fmt.Sprintf("Captured photo %d", i+1),
			Caption: Caption(a),
			Filter:  a.Filter(),
		})
	}

	return DisplayModel{
		Items:         items,
		ExportEnabled: true,
	}
}

// Caption は撮影時刻と、恒等フィルター以外の場合はフィルター名を返す
func Caption(a Artifact) string {
	if a.Filter().IsIdentity() {
		return a.Timestamp()
	}
	return a.Timestamp() + " • " + a.Filter().String()
}
