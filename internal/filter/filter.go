// Package filter はフィルターIDから画像調整パイプラインへの対応表を提供します。
//
// 同じ Pipeline 値から、ブラウザのライブプレビュー用のCSS filter文字列と、
// 撮影時にピクセルへ焼き込むための画像変換の両方を生成する。
// プレビューと撮影結果が一致することをこのパッケージで保証する。
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ID はフィルターの識別子
type ID string

// ID の定数定義
const (
	None      ID = "none"
	Sepia     ID = "sepia"
	Grayscale ID = "grayscale"
	Vintage   ID = "vintage"
)

// ErrUnknownFilter は未知のフィルター名が指定された場合のエラー
var ErrUnknownFilter = errors.New("unknown filter")

// catalog はフィルターIDごとの固定パイプライン
var catalog = map[ID]Pipeline{
	None:      {},
	Sepia:     {SepiaOf(1)},
	Grayscale: {GrayscaleOf(1)},
	Vintage:   {SepiaOf(0.5), ContrastOf(1.2), BrightnessOf(1.1), SaturateOf(1.3)},
}

// EffectFor はフィルターIDに対応するパイプラインを返す
// 未知のIDは恒等変換として扱う
func EffectFor(id ID) Pipeline {
	p, ok := catalog[id]
	if !ok {
		return Pipeline{}
	}
	// 呼び出し側が書き換えても対応表に影響しないようにコピーを返す
	out := make(Pipeline, len(p))
	copy(out, p)
	return out
}

// IDs は表示順のフィルターID一覧を返す
func IDs() []ID {
	return []ID{None, Sepia, Grayscale, Vintage}
}

// Parse は文字列をフィルターIDに変換する
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if id == "" {
		return None, nil
	}
	if _, ok := catalog[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
	return id, nil
}

// IsIdentity はフィルターが恒等変換かどうかを返す
func (id ID) IsIdentity() bool {
	return id == None || id == ""
}

// String はフィルター名を返す
func (id ID) String() string {
	if id == "" {
		return string(None)
	}
	return string(id)
}
