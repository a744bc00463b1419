package booth

import (
	"image"
	"image/color"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// captionFontSize はキャプションの文字サイズ (px)
const captionFontSize = 14

var (
	captionFontOnce sync.Once
	captionFont     *opentype.Font
)

// newCaptionFace はキャプション用のフォントフェイスを作成する
// フェイスは並行利用できないため書き出しごとに作成する
func newCaptionFace() font.Face {
	captionFontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			log.Printf("キャプション用フォントの読み込みに失敗: %v", err)
			return
		}
		captionFont = f
	})

	if captionFont != nil {
		face, err := opentype.NewFace(captionFont, &opentype.FaceOptions{
			Size:    captionFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face
		}
		log.Printf("キャプション用フォントフェイスの作成に失敗: %v", err)
	}

	// フォールバック
	return basicfont.Face7x13
}

// drawText はベースラインの左端を (x, y) として文字列を描画する
func drawText(dst *image.RGBA, face font.Face, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
