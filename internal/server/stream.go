package server

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"net/http"

	"github.com/gin-gonic/gin"

	"velvetlens/internal/camera"
	"velvetlens/internal/filter"
)

// プレビューのJPEG品質
const previewQuality = 80

// GetPreview はフィルターを適用したMJPEGプレビューの実装
func (h *BoothHandler) GetPreview(c *gin.Context) {
	id, err := filter.Parse(c.Query("filter"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unknown_filter", "未知のフィルターです", err)
		return
	}

	streamer, ok := h.camera.(camera.Streamer)
	if !ok {
		respondError(c, http.StatusServiceUnavailable, "camera_not_available", "ストリーミングできるカメラがありません", nil)
		return
	}

	// カメラがアクティブか確認
	if streamer.Status() != camera.StatusActive {
		respondError(c, http.StatusServiceUnavailable, "camera_not_active", "カメラがアクティブではありません", nil)
		return
	}

	streamMJPEG(c, streamer, filter.EffectFor(id))
}

// streamMJPEG はフレームにパイプラインを適用してMJPEGストリームを配信する
func streamMJPEG(c *gin.Context, streamer camera.Streamer, pipeline filter.Pipeline) {
	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// レスポンスライターを取得
	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	frames, unsubscribe := streamer.Subscribe()
	defer unsubscribe()

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			return

		case frame, ok := <-frames:
			if !ok {
				// カメラが停止した
				return
			}

			data, err := applyToJPEG(frame, pipeline)
			if err != nil {
				// 壊れたフレームは飛ばす
				continue
			}

			if err := writeMJPEGPart(writer, data); err != nil {
				return
			}

			// バッファをフラッシュ
			flusher.Flush()
		}
	}
}

// applyToJPEG はJPEGフレームにパイプラインを適用する
// 恒等変換の場合は再エンコードしない
func applyToJPEG(frame []byte, pipeline filter.Pipeline) ([]byte, error) {
	if pipeline.IsIdentity() {
		return frame, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("フレームのデコードに失敗: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pipeline.Bake(img), &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("フレームのエンコードに失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// writeMJPEGPart はMJPEGの1パートを書き込む
func writeMJPEGPart(w gin.ResponseWriter, data []byte) error {
	header := fmt.Sprintf("--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data))
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
