package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"uploadit/internal/application/ports"
	"uploadit/internal/application/services"
	"uploadit/internal/domain/filerecord"
	jwtSvc "uploadit/internal/infrastructure/jwt"
	dto "uploadit/internal/interface/api/rest/dto/filerecord"
)

var uploaderID = uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-90a1b2c3d4e5")

func setupUploadRouter(t *testing.T, us ports.UploadService) *gin.Engine {
	t.Helper()
	r := newTestEngine()
	NewUploadController(r, us, zap.NewNop(), jwtSvc.New(testSecret))
	return r
}

func validAuth(t *testing.T) map[string]string {
	return bearer(SignJWT(t, testSecret, uploaderID, "a@x.com", time.Hour))
}

func TestUploadController_Auth(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantErr string
	}{
		{"missing header", nil, "missing Authorization header"},
		{"wrong scheme", map[string]string{"Authorization": "Token abc"}, "invalid token format"},
		{"bad signature", bearer(SignJWT(t, "other-secret", uploaderID, "a@x.com", time.Hour)), "invalid token"},
		{"expired", bearer(SignJWT(t, testSecret, uploaderID, "a@x.com", -time.Minute)), "invalid token"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine()
			NewUploadController(r, &FakeUploadService{}, zap.NewNop(), jwtSvc.New(testSecret))

			rr := doReq(t, r, http.MethodGet, RouteUploads, nil, tt.headers)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, tt.wantErr, errorOf(t, rr))
		})
	}
}

func TestUploadController_UploadHandler(t *testing.T) {
	recID := uuid.New()

	tests := []struct {
		name       string
		fileField  string
		fileName   string
		fileBytes  []byte
		upload     func(ctx context.Context, who ports.Identity, in ports.UploadInput) (*filerecord.FileRecord, error)
		wantStatus int
		wantErr    string
	}{
		{
			name:       "400 file is required",
			wantStatus: http.StatusBadRequest,
			wantErr:    "file is required",
		},
		{
			name:       "413 empty file",
			fileField:  "file",
			fileName:   "empty.pdf",
			fileBytes:  []byte{},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantErr:    "file too large or empty",
		},
		{
			name:      "502 storage write",
			fileField: "file",
			fileName:  "report.pdf",
			fileBytes: []byte("%PDF-1.4"),
			upload: func(context.Context, ports.Identity, ports.UploadInput) (*filerecord.FileRecord, error) {
				return nil, fmt.Errorf("%w: quota", services.ErrStorageWrite)
			},
			wantStatus: http.StatusBadGateway,
			wantErr:    "file storage is unavailable",
		},
		{
			name:      "503 codes exhausted",
			fileField: "file",
			fileName:  "report.pdf",
			fileBytes: []byte("%PDF-1.4"),
			upload: func(context.Context, ports.Identity, ports.UploadInput) (*filerecord.FileRecord, error) {
				return nil, services.ErrCodeExhausted
			},
			wantStatus: http.StatusServiceUnavailable,
			wantErr:    "could not issue a download code, try again",
		},
		{
			name:      "500 record insert",
			fileField: "file",
			fileName:  "report.pdf",
			fileBytes: []byte("%PDF-1.4"),
			upload: func(context.Context, ports.Identity, ports.UploadInput) (*filerecord.FileRecord, error) {
				return nil, fmt.Errorf("%w: conn reset", services.ErrRecordInsert)
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "failed to save the file record",
		},
		{
			name:      "201 created",
			fileField: "file",
			fileName:  "report.pdf",
			fileBytes: []byte("%PDF-1.4"),
			upload: func(_ context.Context, who ports.Identity, in ports.UploadInput) (*filerecord.FileRecord, error) {
				assert.Equal(t, ports.Identity{UserID: uploaderID, Email: "a@x.com"}, who)
				assert.Equal(t, "report.pdf", in.Name)
				assert.Equal(t, int64(8), in.Size)
				b, err := io.ReadAll(in.Body)
				require.NoError(t, err)
				assert.Equal(t, "%PDF-1.4", string(b))
				return &filerecord.FileRecord{ID: recID, OriginalName: in.Name, DownloadCode: "AB12CD", FilePath: "uploads/x/1.pdf"}, nil
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine()
			NewUploadController(r, &FakeUploadService{UploadFunc: tt.upload}, zap.NewNop(), jwtSvc.New(testSecret))

			rr := doMultipartReq(t, r, RouteUploads, tt.fileField, tt.fileName, tt.fileBytes, validAuth(t))
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rr))
				return
			}

			var got dto.FileRecord
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, recID, got.ID)
			assert.Equal(t, "AB12CD", got.DownloadCode)
			assert.NotContains(t, rr.Body.String(), "uploads/x/1.pdf")
		})
	}
}

func TestUploadController_ListUploadsHandler(t *testing.T) {
	t.Run("200 newest first", func(t *testing.T) {
		r := setupUploadRouter(t, &FakeUploadService{
			ListUploadsFunc: func(_ context.Context, uploader string) (filerecord.FileRecords, error) {
				assert.Equal(t, "a@x.com", uploader)
				return filerecord.FileRecords{
					{ID: uuid.New(), OriginalName: "b.pdf", DownloadCode: "BBBBBB"},
					{ID: uuid.New(), OriginalName: "a.pdf", DownloadCode: "AAAAAA"},
				}, nil
			},
		})

		rr := doReq(t, r, http.MethodGet, RouteUploads, nil, validAuth(t))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ResponseData
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "b.pdf", resp.Data[0].Name)
		assert.Equal(t, "AAAAAA", resp.Data[1].DownloadCode)
	})

	t.Run("500 repository error", func(t *testing.T) {
		r := setupUploadRouter(t, &FakeUploadService{
			ListUploadsFunc: func(context.Context, string) (filerecord.FileRecords, error) {
				return nil, errors.New("db down")
			},
		})

		rr := doReq(t, r, http.MethodGet, RouteUploads, nil, validAuth(t))
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "failed to get uploads", errorOf(t, rr))
	})
}

func TestUploadController_RenameHandler(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		path       string
		body       any
		rename     func(ctx context.Context, uploader string, id filerecord.ID, name string) (*filerecord.FileRecord, error)
		wantStatus int
		wantErr    string
	}{
		{
			name:       "400 invalid uuid",
			path:       RouteUploads + "/not-uuid",
			body:       dto.RenameRequest{Name: "x.pdf"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "id must be a valid UUID",
		},
		{
			name:       "400 empty name",
			path:       RouteUploads + "/" + id.String(),
			body:       dto.RenameRequest{Name: "  "},
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name:       "400 path in name",
			path:       RouteUploads + "/" + id.String(),
			body:       dto.RenameRequest{Name: "../etc/passwd"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "invalid request body",
		},
		{
			name: "404 not owned",
			path: RouteUploads + "/" + id.String(),
			body: dto.RenameRequest{Name: "final.pdf"},
			rename: func(context.Context, string, filerecord.ID, string) (*filerecord.FileRecord, error) {
				return nil, services.ErrNotFound
			},
			wantStatus: http.StatusNotFound,
			wantErr:    "file not found",
		},
		{
			name: "200 renamed",
			path: RouteUploads + "/" + id.String(),
			body: dto.RenameRequest{Name: "final.pdf"},
			rename: func(_ context.Context, uploader string, got filerecord.ID, name string) (*filerecord.FileRecord, error) {
				assert.Equal(t, "a@x.com", uploader)
				assert.Equal(t, id, got)
				return &filerecord.FileRecord{ID: got, OriginalName: name, DownloadCode: "AB12CD"}, nil
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := setupUploadRouter(t, &FakeUploadService{RenameFunc: tt.rename})

			rr := doReq(t, r, http.MethodPut, tt.path, tt.body, validAuth(t))
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rr))
				return
			}

			var got dto.FileRecord
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "final.pdf", got.Name)
			assert.Equal(t, "AB12CD", got.DownloadCode)
		})
	}
}

func TestUploadController_DeleteHandler(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		del        func(ctx context.Context, uploader string, id filerecord.ID) error
		wantStatus int
	}{
		{
			name:       "204 deleted",
			del:        func(context.Context, string, filerecord.ID) error { return nil },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "404 unknown",
			del:        func(context.Context, string, filerecord.ID) error { return services.ErrNotFound },
			wantStatus: http.StatusNotFound,
		},
		{
			name: "502 object left behind",
			del: func(context.Context, string, filerecord.ID) error {
				return fmt.Errorf("%w: timeout", services.ErrStorageWrite)
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := setupUploadRouter(t, &FakeUploadService{DeleteFunc: tt.del})

			rr := doReq(t, r, http.MethodDelete, RouteUploads+"/"+id.String(), nil, validAuth(t))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestUploadController_QRCodeHandler(t *testing.T) {
	r := setupUploadRouter(t, &FakeUploadService{
		QRCodeFunc: func(code string) ([]byte, error) {
			assert.Equal(t, "AB12CD", code)
			return []byte("\x89PNG"), nil
		},
	})

	rr := doReq(t, r, http.MethodGet, RouteApiV1+"/codes/ab12cd/qr", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rr.Body.String())

	rr = doReq(t, r, http.MethodGet, RouteApiV1+"/codes/AB-12/qr", nil, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "malformed code", errorOf(t, rr))
}
