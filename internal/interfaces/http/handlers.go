package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkp-kub/bantuan-kub/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	pengajuan  service.PengajuanService
	monitoring service.MonitoringService
	kelompok   service.KelompokService
	documents  service.DocumentService
	maxUpload  int64
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUpload int64, logger Logger) *Handlers {
	return &Handlers{
		pengajuan:  services.Pengajuan,
		monitoring: services.Monitoring,
		kelompok:   services.Kelompok,
		documents:  services.Documents,
		maxUpload:  maxUpload,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SignedURLResponse is a time-limited link to a stored document
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// PageRequest represents paging query parameters
type PageRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ReportRequest selects the year of the Kepala Dinas report
type ReportRequest struct {
	Tahun int `form:"tahun" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// OpenDocument handles GET /files?token=...
func (h *Handlers) OpenDocument(c *gin.Context) {
	doc, err := h.documents.Open(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Name))
	c.Data(http.StatusOK, http.DetectContentType(doc.Content), doc.Content)
}

// CreateKelompok handles POST /api/kelompok
func (h *Handlers) CreateKelompok(c *gin.Context) {
	var req service.CreateKelompokInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	k, err := h.kelompok.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: k})
}

// ListKelompok handles GET /api/kelompok
func (h *Handlers) ListKelompok(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	list, err := h.kelompok.List(c.Request.Context(), actorFrom(c), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// GetKelompok handles GET /api/kelompok/:id
func (h *Handlers) GetKelompok(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	k, err := h.kelompok.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: k})
}

// SubmitPengajuan handles POST /api/pengajuan
func (h *Handlers) SubmitPengajuan(c *gin.Context) {
	var req service.SubmitPengajuanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.pengajuan.Submit(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: p})
}

// ListPengajuan handles GET /api/pengajuan
func (h *Handlers) ListPengajuan(c *gin.Context) {
	var req service.PengajuanQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	list, err := h.pengajuan.ListForActor(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// GetPengajuan handles GET /api/pengajuan/:id
func (h *Handlers) GetPengajuan(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.pengajuan.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

// EditPengajuan handles PUT /api/pengajuan/:id
func (h *Handlers) EditPengajuan(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req service.EditPengajuanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.pengajuan.Edit(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

// DeletePengajuan handles DELETE /api/pengajuan/:id
func (h *Handlers) DeletePengajuan(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.pengajuan.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// RecordAdminDecision handles POST /api/pengajuan/:id/verifikasi-admin
func (h *Handlers) RecordAdminDecision(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req service.AdminDecisionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.pengajuan.RecordAdminDecision(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

// RecordKabidDecision handles POST /api/pengajuan/:id/verifikasi-kabid
func (h *Handlers) RecordKabidDecision(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req service.KabidDecisionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.pengajuan.RecordKabidDecision(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

// AttachBAST handles POST /api/pengajuan/:id/bast as multipart with fields no_bast and file
func (h *Handlers) AttachBAST(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUpload),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read upload", "error", err, "pengajuan_id", id)
		h.badRequest(c, errors.New("unreadable upload"))
		return
	}

	bast, err := h.pengajuan.AttachBAST(c.Request.Context(), actorFrom(c), id, service.AttachBASTInput{
		NoBAST:   c.PostForm("no_bast"),
		Filename: header.Filename,
		Content:  content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: bast})
}

// BASTURL handles GET /api/pengajuan/:id/bast-url
func (h *Handlers) BASTURL(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	url, expires, err := h.pengajuan.BASTURL(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: SignedURLResponse{
			URL:       url,
			ExpiresAt: expires.UTC().Format(time.RFC3339),
		},
	})
}

// PengajuanHistory handles GET /api/pengajuan/:id/history
func (h *Handlers) PengajuanHistory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	trail, err := h.pengajuan.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: trail})
}

// KadisReport handles GET /api/laporan/kadis?tahun=...
func (h *Handlers) KadisReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	report, err := h.pengajuan.KadisReport(c.Request.Context(), actorFrom(c), req.Tahun)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// SubmitMonitoring handles POST /api/monitoring
func (h *Handlers) SubmitMonitoring(c *gin.Context) {
	var req service.SubmitMonitoringInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	m, err := h.monitoring.Submit(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: m})
}

// ListMonitoring handles GET /api/monitoring
func (h *Handlers) ListMonitoring(c *gin.Context) {
	var req service.MonitoringQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	list, err := h.monitoring.List(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// GetMonitoring handles GET /api/monitoring/:id
func (h *Handlers) GetMonitoring(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	m, err := h.monitoring.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: m})
}

// EditMonitoring handles PUT /api/monitoring/:id
func (h *Handlers) EditMonitoring(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req service.EditMonitoringInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	m, err := h.monitoring.Edit(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: m})
}

// DeleteMonitoring handles DELETE /api/monitoring/:id
func (h *Handlers) DeleteMonitoring(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.monitoring.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// RecordMonitoringDecision handles POST /api/monitoring/:id/verifikasi-kabid
func (h *Handlers) RecordMonitoringDecision(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req service.MonitoringDecisionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	m, err := h.monitoring.RecordKabidDecision(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: m})
}

// MonitoringHistory handles GET /api/monitoring/:id/history
func (h *Handlers) MonitoringHistory(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	trail, err := h.monitoring.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: trail})
}

// parseID reads the :id path parameter and writes a 400 when it is not a positive integer
func (h *Handlers) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid id",
			Code:    "VALIDATION_ERROR",
		})
		return 0, false
	}
	return id, true
}
