package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/application/services"
	"uploadit/internal/infrastructure/jwt"
	"uploadit/internal/interface/api/rest/dto/filerecord"
	"uploadit/internal/interface/api/rest/middleware"
	"uploadit/internal/interface/api/rest/validator"
)

// 50MB
const maxUploadSize = int64(50 << 20)

type UploadController struct {
	uploadService ports.UploadService
	logger        *zap.Logger
}

func NewUploadController(
	r *gin.Engine,
	uploadService ports.UploadService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *UploadController {
	uc := &UploadController{
		uploadService: uploadService,
		logger:        logger,
	}

	authorized := r.Group("", middleware.AuthMiddleware(jwtService))
	authorized.GET(RouteUploads, uc.ListUploadsHandler)
	authorized.POST(RouteUploads, uc.UploadHandler)
	authorized.PUT(RouteUpload, uc.RenameHandler)
	authorized.DELETE(RouteUpload, uc.DeleteHandler)

	r.GET(RouteCodeQR, uc.QRCodeHandler)

	return uc
}

func (uc *UploadController) identity(c *gin.Context) (ports.Identity, bool) {
	who, err := services.IdentityFromClaims(c.GetString(middleware.CtxUserID), c.GetString(middleware.CtxUserEmail))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return ports.Identity{}, false
	}
	return who, true
}

func (uc *UploadController) ListUploadsHandler(c *gin.Context) {
	who, ok := uc.identity(c)
	if !ok {
		return
	}

	recs, err := uc.uploadService.ListUploads(c.Request.Context(), who.Email)
	if err != nil {
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "failed to get uploads"},
		)
		uc.logger.Error("ListUploads() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, filerecord.ResponseData{
		Data: filerecord.ToResponseFileRecords(recs),
	})
}

func (uc *UploadController) UploadHandler(c *gin.Context) {
	who, ok := uc.identity(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size <= 0 || fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large or empty"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read the uploaded file"})
		return
	}
	defer f.Close()

	rec, err := uc.uploadService.Upload(c.Request.Context(), who, ports.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		abortWithServiceError(c, uc.logger, "Upload()", err)
		return
	}

	c.JSON(http.StatusCreated, filerecord.ToResponseFileRecord(*rec))
}

func (uc *UploadController) RenameHandler(c *gin.Context) {
	who, ok := uc.identity(c)
	if !ok {
		return
	}
	ok, id := validator.IsUUID(c.Param("id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "id must be a valid UUID"},
		)
		return
	}

	var req filerecord.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errs := validator.ValidateRename(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	rec, err := uc.uploadService.Rename(c.Request.Context(), who.Email, id, req.Name)
	if err != nil {
		abortWithServiceError(c, uc.logger, "Rename()", err)
		return
	}

	c.JSON(http.StatusOK, filerecord.ToResponseFileRecord(*rec))
}

func (uc *UploadController) DeleteHandler(c *gin.Context) {
	who, ok := uc.identity(c)
	if !ok {
		return
	}
	ok, id := validator.IsUUID(c.Param("id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "id must be a valid UUID"},
		)
		return
	}

	if err := uc.uploadService.Delete(c.Request.Context(), who.Email, id); err != nil {
		abortWithServiceError(c, uc.logger, "Delete()", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (uc *UploadController) QRCodeHandler(c *gin.Context) {
	code, ok := validator.ValidateCode(c.Param("code"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed code"})
		return
	}

	png, err := uc.uploadService.QRCode(code)
	if err != nil {
		abortWithServiceError(c, uc.logger, "QRCode()", err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
