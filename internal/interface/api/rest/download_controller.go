package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/interface/api/rest/dto/download"
	"uploadit/internal/interface/api/rest/validator"
)

// DownloadController is the receiving device's side: resolve a code into a
// local file and manage the list of files fetched so far.
type DownloadController struct {
	resolver ports.ResolutionService
	ledger   ports.Ledger
	logger   *zap.Logger
}

func NewDownloadController(
	r *gin.Engine,
	resolver ports.ResolutionService,
	ledger ports.Ledger,
	logger *zap.Logger,
	limiter gin.HandlerFunc,
) *DownloadController {
	dc := &DownloadController{
		resolver: resolver,
		ledger:   ledger,
		logger:   logger,
	}

	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	r.POST(RouteDownloads, limiter, dc.ResolveHandler)
	r.GET(RouteDownloads, dc.ListHandler)
	r.DELETE(RouteDownload, dc.RemoveHandler)

	return dc
}

func (dc *DownloadController) ResolveHandler(c *gin.Context) {
	var req download.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	code, ok := validator.ValidateCode(req.Code)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed code"})
		return
	}

	e, err := dc.resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		abortWithServiceError(c, dc.logger, "Resolve()", err)
		return
	}

	c.JSON(http.StatusCreated, download.ToResponseEntry(*e))
}

func (dc *DownloadController) ListHandler(c *gin.Context) {
	l, err := dc.ledger.Load(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, dc.logger, "Load()", err)
		return
	}

	c.JSON(http.StatusOK, download.ResponseData{
		Data: download.ToResponseEntries(l),
	})
}

// RemoveHandler answers 204 for unknown ids too.
func (dc *DownloadController) RemoveHandler(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	if err := dc.ledger.Remove(c.Request.Context(), id); err != nil {
		abortWithServiceError(c, dc.logger, "Remove()", err)
		return
	}

	c.Status(http.StatusNoContent)
}
