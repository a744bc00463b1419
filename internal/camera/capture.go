package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
)

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// ffmpegの入力フォーマット
const (
	formatV4L2 = "v4l2"
	formatX11  = "x11grab"
)

// FFmpegCapturer はffmpegを使ってJPEGフレームを取得する
// 入力はV4L2デバイスかX11ディスプレイ
type FFmpegCapturer struct {
	format   string
	input    string // デバイスパスまたはディスプレイ名
	settings Settings
}

// NewV4L2Capturer はV4L2デバイス用のFFmpegCapturerを作成する
func NewV4L2Capturer(devicePath string, settings Settings) *FFmpegCapturer {
	return &FFmpegCapturer{
		format:   formatV4L2,
		input:    devicePath,
		settings: settings,
	}
}

// NewX11Capturer はX11画面キャプチャ用のFFmpegCapturerを作成する
func NewX11Capturer(display string, settings Settings) *FFmpegCapturer {
	return &FFmpegCapturer{
		format:   formatX11,
		input:    display,
		settings: settings,
	}
}

// inputArgs はffmpegの入力引数を返す
func (c *FFmpegCapturer) inputArgs() []string {
	args := []string{
		"-loglevel", "error",
		"-f", c.format,
		"-video_size", fmt.Sprintf("%dx%d", c.settings.Width, c.settings.Height),
	}
	if c.settings.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(c.settings.FPS))
	}
	return append(args, "-i", c.input)
}

// CaptureFrameAsJPEG は1フレームをキャプチャしてJPEGバイト配列として返す
func (c *FFmpegCapturer) CaptureFrameAsJPEG(ctx context.Context) ([]byte, error) {
	args := append(c.inputArgs(),
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2", // 高品質JPEG
		"-",
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("フレームキャプチャに失敗: %w (stderr: %s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("フレームキャプチャの出力が空です")
	}

	return stdout.Bytes(), nil
}

// TestCapture は1フレームを取得し、JPEGとして読めるか確認する
// 呼び出し側はタイムアウト付きのコンテキストを渡す
func (c *FFmpegCapturer) TestCapture(ctx context.Context) ([]byte, error) {
	frame, err := c.CaptureFrameAsJPEG(ctx)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(frame, jpegStart) {
		return nil, errors.New("ffmpegの出力がJPEGではありません")
	}
	return frame, nil
}

// StartStream はffmpegで連続キャプチャし、JPEGフレームをframesへ送る
// コンテキストがキャンセルされるかffmpegが終了するまでブロックする
func (c *FFmpegCapturer) StartStream(ctx context.Context, frames chan<- []byte) error {
	args := append(c.inputArgs(),
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdoutパイプの作成に失敗: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpegの起動に失敗: %w", err)
	}

	readErr := readJPEGStream(ctx, stdout, frames)

	// コンテキストキャンセル時のWaitエラーは無視する
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		log.Printf("ffmpegが終了しました (%s): %s", c.input, stderr.String())
		return fmt.Errorf("ffmpegが異常終了: %w", waitErr)
	}
	return nil
}

// readJPEGStream はストリームからJPEGフレームを切り出して送信する
func readJPEGStream(ctx context.Context, r io.Reader, frames chan<- []byte) error {
	reader := bufio.NewReaderSize(r, 1024*1024)
	buf := make([]byte, 64*1024)
	var pending []byte

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			var complete [][]byte
			complete, pending = splitJPEGFrames(pending)
			for _, frame := range complete {
				select {
				case frames <- frame:
				case <-ctx.Done():
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("フレーム読み取りエラー: %w", err)
		}
	}
}

// splitJPEGFrames は連結されたJPEGデータから完全なフレームを取り出す
// 戻り値の残りは次の読み取りで続きを連結するためのデータ
func splitJPEGFrames(data []byte) ([][]byte, []byte) {
	var frames [][]byte

	for {
		start := bytes.Index(data, jpegStart)
		if start == -1 {
			// 開始マーカーがなければ保持する必要はない
			// ただし末尾の0xFFはマーカーの前半かもしれないので残す
			if len(data) > 0 && data[len(data)-1] == 0xFF {
				return frames, []byte{0xFF}
			}
			return frames, nil
		}

		end := bytes.Index(data[start+len(jpegStart):], jpegEnd)
		if end == -1 {
			rest := make([]byte, len(data)-start)
			copy(rest, data[start:])
			return frames, rest
		}

		end += start + len(jpegStart) + len(jpegEnd)
		frame := make([]byte, end-start)
		copy(frame, data[start:end])
		frames = append(frames, frame)

		data = data[end:]
	}
}
