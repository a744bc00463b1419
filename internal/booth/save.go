package booth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// SaveComposite は書き出し画像をディレクトリへアトミックに保存し、保存先のパスを返す
func SaveComposite(dir string, c *Composite) (string, error) {
	if c == nil {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)
	}

	path := filepath.Join(dir, c.Filename)
	if err := atomic.WriteFile(path, bytes.NewReader(c.Data)); err != nil {
		return "", fmt.Errorf("書き出し画像の保存に失敗: %w", err)
	}
	return path, nil
}
