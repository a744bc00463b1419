package filter

import (
	"image"
	"image/color"
)

// filteredImage は描画時にピクセルごとにパイプラインを適用する画像
type filteredImage struct {
	source   image.Image
	pipeline Pipeline
}

// ColorModel はカラーモデルを返す
func (f *filteredImage) ColorModel() color.Model { return color.NRGBAModel }

// Bounds は元画像の範囲を返す
func (f *filteredImage) Bounds() image.Rectangle { return f.source.Bounds() }

// At は指定座標のフィルター適用後の色を返す
func (f *filteredImage) At(x, y int) color.Color {
	c := color.NRGBAModel.Convert(f.source.At(x, y)).(color.NRGBA)
	return f.pipeline.Transform(c)
}

// Apply はパイプラインを描画元として使える画像を返す
// 描画時に変換されるため、描画先には調整済みのピクセルが書き込まれる
func (p Pipeline) Apply(src image.Image) image.Image {
	if p.IsIdentity() || src == nil {
		return src
	}
	return &filteredImage{source: src, pipeline: p}
}

// Bake はパイプラインを適用した新しいNRGBA画像を作成する
// プレビューストリームのように同じ画像を何度も読む場合に使う
func (p Pipeline) Bake(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, p.Transform(c))
		}
	}

	return dst
}
