package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"velvetlens/internal/booth"
	"velvetlens/internal/camera"
	"velvetlens/internal/config"
	"velvetlens/internal/filter"
)

// maxUploadBytes はアップロードされるフレームの最大サイズ
const maxUploadBytes = 10 << 20

// BoothHandler はフォトブースAPIのハンドラ
type BoothHandler struct {
	config  *config.Config
	manager *booth.Manager
	camera  camera.Source
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *BoothHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *BoothHandler) GetStatus(c *gin.Context) {
	response := StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Sessions:  h.manager.Len(),
		Timestamp: time.Now(),
	}

	var status *CameraStatus
	if h.camera != nil {
		status = &CameraStatus{
			Info:   h.camera.Info(),
			Status: h.camera.Status(),
			Ready:  h.camera.Ready(),
		}
	}
	if acq := h.manager.Source(); acq != nil {
		if err := acq.Err(); err != nil {
			if status == nil {
				// カメラを開けなかった
				status = &CameraStatus{Status: camera.StatusError}
			}
			status.Error = stringPtr(err.Error())
		}
	}
	response.Camera = status

	c.JSON(http.StatusOK, response)
}

// GetFilters はフィルター一覧取得エンドポイントの実装
func (h *BoothHandler) GetFilters(c *gin.Context) {
	ids := filter.IDs()
	filters := make([]FilterInfo, 0, len(ids))
	for _, id := range ids {
		filters = append(filters, FilterInfo{
			ID:  id,
			CSS: filter.EffectFor(id).CSS(),
		})
	}

	c.JSON(http.StatusOK, FiltersResponse{Filters: filters})
}

// CreateSession はセッション作成エンドポイントの実装
func (h *BoothHandler) CreateSession(c *gin.Context) {
	session := h.manager.Create(h.sessionObserver())

	c.JSON(http.StatusCreated, SessionResponse{
		ID:        session.ID().String(),
		CreatedAt: session.CreatedAt(),
		Display:   session.DisplayModel(),
	})
}

// DeleteSession はセッション破棄エンドポイントの実装
func (h *BoothHandler) DeleteSession(c *gin.Context) {
	if err := h.manager.Remove(c.Param("id")); err != nil {
		respondSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectFilter はフィルター選択エンドポイントの実装
func (h *BoothHandler) SelectFilter(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req SelectFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err)
		return
	}

	if err := session.SelectFilter(filter.ID(req.Filter)); err != nil {
		if errors.Is(err, filter.ErrUnknownFilter) {
			respondError(c, http.StatusBadRequest, "unknown_filter", "未知のフィルターです", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "filter_failed", "フィルターの設定に失敗しました", err)
		return
	}

	c.JSON(http.StatusOK, session.DisplayModel())
}

// Capture は撮影エンドポイントの実装
// 画像が送られた場合はそのフレームから、それ以外は共有カメラから撮影する
func (h *BoothHandler) Capture(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var src booth.FrameSource
	if strings.HasPrefix(c.ContentType(), "image/") {
		body := http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		still, err := camera.DecodeStillSource("upload", body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.Is(err, camera.ErrImageTooLarge) || errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "image_too_large", "画像が大きすぎます", err)
				return
			}
			respondError(c, http.StatusBadRequest, "invalid_image", "画像を読み込めません", err)
			return
		}
		if err := still.Start(c.Request.Context()); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_image", "画像を読み込めません", err)
			return
		}
		src = still
	}

	captured, err := session.Capture(c.Request.Context(), src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "capture_failed", "撮影に失敗しました", err)
		return
	}
	if !captured {
		// ソースが準備完了でない場合は何もしない
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, session.DisplayModel())
}

// GetReel はリール表示状態取得エンドポイントの実装
func (h *BoothHandler) GetReel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.DisplayModel())
}

// Export は書き出しエンドポイントの実装
func (h *BoothHandler) Export(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	composite, err := session.Export(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "export_failed", "書き出しに失敗しました", err)
		return
	}
	if composite == nil {
		// リールが空
		c.Status(http.StatusNoContent)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, composite.Filename))
	c.Data(http.StatusOK, "image/png", composite.Data)
}

// ヘルパー関数

// session はパスのIDに対応するセッションを返す
func (h *BoothHandler) session(c *gin.Context) (*booth.Session, bool) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}
	return session, true
}

// sessionObserver はサーバー側で受け取るセッション通知を返す
func (h *BoothHandler) sessionObserver() booth.Observer {
	exportDir := h.config.Booth.ExportDir
	return booth.ObserverFuncs{
		OnCapture: func(a booth.Artifact) {
			log.Printf("撮影しました: %s", booth.Caption(a))
		},
		OnExported: func(composite *booth.Composite) {
			if exportDir == "" {
				return
			}
			path, err := booth.SaveComposite(exportDir, composite)
			if err != nil {
				log.Printf("書き出し画像の保存に失敗: %v", err)
				return
			}
			log.Printf("書き出し画像を保存しました: %s", path)
		},
	}
}

// respondSessionError はセッション取得エラーを返す
func respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, booth.ErrSessionNotFound) {
		respondError(c, http.StatusNotFound, "session_not_found", "指定されたセッションが見つかりません", nil)
		return
	}
	respondError(c, http.StatusInternalServerError, "internal_error", "セッションの取得に失敗しました", err)
}

// respondError はエラーレスポンスを返す
func respondError(c *gin.Context, status int, code, message string, err error) {
	response := ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err != nil {
		response.Details = stringPtr(err.Error())
	}
	c.AbortWithStatusJSON(status, response)
}
