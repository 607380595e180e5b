package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadit/internal/application/services"
)

type errorMapping struct {
	target error
	status int
	msg    string
}

// Order matters: ErrCodeExhausted also matches ErrCodeCollision and ErrRecordInsert.
var errorMappings = []errorMapping{
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid request"},
	{services.ErrAuth, http.StatusUnauthorized, "authentication failed"},
	{services.ErrNotFound, http.StatusNotFound, "file not found"},
	{services.ErrCodeNotFound, http.StatusNotFound, "no file matches this code"},
	{services.ErrRecordLookup, http.StatusBadGateway, "file index is unavailable"},
	{services.ErrCodeExhausted, http.StatusServiceUnavailable, "could not issue a download code, try again"},
	{services.ErrStorageWrite, http.StatusBadGateway, "file storage is unavailable"},
	{services.ErrRecordInsert, http.StatusInternalServerError, "failed to save the file record"},
	{services.ErrSignedURL, http.StatusBadGateway, "failed to authorize the download"},
	{services.ErrTransfer, http.StatusBadGateway, "download failed"},
	{services.ErrLocalPersistence, http.StatusInternalServerError, "downloads list is unavailable"},
}

// abortWithServiceError answers with the status for err and logs server-side failures.
func abortWithServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, msg = m.status, m.msg
			break
		}
	}

	// auth failures carry a user-facing reason
	if status == http.StatusUnauthorized || status == http.StatusBadRequest {
		msg = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error(op+" error", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
