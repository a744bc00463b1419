package filter

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Op は画像調整プリミティブの種類
type Op string

// Op の定数定義
const (
	OpSepia      Op = "sepia"
	OpGrayscale  Op = "grayscale"
	OpContrast   Op = "contrast"
	OpBrightness Op = "brightness"
	OpSaturate   Op = "saturate"
)

// Adjustment は1つの画像調整プリミティブ
type Adjustment struct {
	Op     Op      `json:"op"`
	Amount float64 `json:"amount"`
}

// SepiaOf はセピア調整を作成する (1 = 100%)
func SepiaOf(amount float64) Adjustment { return Adjustment{Op: OpSepia, Amount: amount} }

// GrayscaleOf はグレースケール調整を作成する (1 = 100%)
func GrayscaleOf(amount float64) Adjustment { return Adjustment{Op: OpGrayscale, Amount: amount} }

// ContrastOf はコントラスト調整を作成する
func ContrastOf(factor float64) Adjustment { return Adjustment{Op: OpContrast, Amount: factor} }

// BrightnessOf は明るさ調整を作成する
func BrightnessOf(factor float64) Adjustment { return Adjustment{Op: OpBrightness, Amount: factor} }

// SaturateOf は彩度調整を作成する
func SaturateOf(factor float64) Adjustment { return Adjustment{Op: OpSaturate, Amount: factor} }

// Pipeline は順番に適用される調整プリミティブの列
// 空のパイプラインは恒等変換
type Pipeline []Adjustment

// IsIdentity は恒等変換かどうかを返す
func (p Pipeline) IsIdentity() bool {
	return len(p) == 0
}

// CSS はライブプレビュー用のCSS filter文字列を返す
func (p Pipeline) CSS() string {
	if p.IsIdentity() {
		return "none"
	}

	parts := make([]string, 0, len(p))
	for _, adj := range p {
		parts = append(parts, adj.css())
	}
	return strings.Join(parts, " ")
}

func (a Adjustment) css() string {
	switch a.Op {
	case OpSepia, OpGrayscale:
		// CSSと同じくパーセント表記
		return string(a.Op) + "(" + formatFloat(a.Amount*100) + "%)"
	default:
		return string(a.Op) + "(" + formatFloat(a.Amount) + ")"
	}
}

func formatFloat(v float64) string {
	// 0.5*100 などの丸め誤差を吸収する
	v = math.Round(v*1e6) / 1e6
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Transform は1ピクセルにパイプラインを適用する
// 計算は非乗算アルファの0〜1空間で行い、各プリミティブの後でクランプする
func (p Pipeline) Transform(c color.NRGBA) color.NRGBA {
	if p.IsIdentity() {
		return c
	}

	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	for _, adj := range p {
		r, g, b = adj.apply(r, g, b)
	}

	return color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: c.A}
}

// apply はCSS Filter Effectsの定義に従って1つのプリミティブを適用する
func (a Adjustment) apply(r, g, b float64) (float64, float64, float64) {
	switch a.Op {
	case OpSepia:
		k := 1 - clamp01(a.Amount)
		return matrix(r, g, b, [9]float64{
			0.393 + 0.607*k, 0.769 - 0.769*k, 0.189 - 0.189*k,
			0.349 - 0.349*k, 0.686 + 0.314*k, 0.168 - 0.168*k,
			0.272 - 0.272*k, 0.534 - 0.534*k, 0.131 + 0.869*k,
		})
	case OpGrayscale:
		k := 1 - clamp01(a.Amount)
		return matrix(r, g, b, [9]float64{
			0.2126 + 0.7874*k, 0.7152 - 0.7152*k, 0.0722 - 0.0722*k,
			0.2126 - 0.2126*k, 0.7152 + 0.2848*k, 0.0722 - 0.0722*k,
			0.2126 - 0.2126*k, 0.7152 - 0.7152*k, 0.0722 + 0.9278*k,
		})
	case OpSaturate:
		s := math.Max(a.Amount, 0)
		return matrix(r, g, b, [9]float64{
			0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s,
			0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s,
			0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s,
		})
	case OpContrast:
		c := math.Max(a.Amount, 0)
		return clamp01((r-0.5)*c + 0.5), clamp01((g-0.5)*c + 0.5), clamp01((b-0.5)*c + 0.5)
	case OpBrightness:
		k := math.Max(a.Amount, 0)
		return clamp01(r * k), clamp01(g * k), clamp01(b * k)
	default:
		return r, g, b
	}
}

// matrix は3x3の色行列を適用する
func matrix(r, g, b float64, m [9]float64) (float64, float64, float64) {
	return clamp01(m[0]*r + m[1]*g + m[2]*b),
		clamp01(m[3]*r + m[4]*g + m[5]*b),
		clamp01(m[6]*r + m[7]*g + m[8]*b)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func toByte(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
