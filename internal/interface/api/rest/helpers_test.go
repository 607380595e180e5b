package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/download"
	"uploadit/internal/domain/filerecord"
	jwtSvc "uploadit/internal/infrastructure/jwt"
)

const testSecret = "test-secret"

type FakeAuth struct {
	SignUpFunc     func(ctx context.Context, email, password string) (string, error)
	SignInFunc     func(ctx context.Context, email, password string) (*ports.Session, error)
	SignOutFunc    func(ctx context.Context) error
	GetSessionFunc func(ctx context.Context) *ports.Session
}

func (f *FakeAuth) SignUp(ctx context.Context, email, password string) (string, error) {
	if f.SignUpFunc == nil {
		return "", errors.New("not used")
	}
	return f.SignUpFunc(ctx, email, password)
}
func (f *FakeAuth) SignIn(ctx context.Context, email, password string) (*ports.Session, error) {
	if f.SignInFunc == nil {
		return nil, errors.New("not used")
	}
	return f.SignInFunc(ctx, email, password)
}
func (f *FakeAuth) SignOut(ctx context.Context) error {
	if f.SignOutFunc == nil {
		return errors.New("not used")
	}
	return f.SignOutFunc(ctx)
}
func (f *FakeAuth) GetSession(ctx context.Context) *ports.Session {
	if f.GetSessionFunc == nil {
		return nil
	}
	return f.GetSessionFunc(ctx)
}
func (f *FakeAuth) OnSessionChange(ports.SessionListener) {}

type FakeUploadService struct {
	UploadFunc      func(ctx context.Context, who ports.Identity, in ports.UploadInput) (*filerecord.FileRecord, error)
	ListUploadsFunc func(ctx context.Context, uploader string) (filerecord.FileRecords, error)
	RenameFunc      func(ctx context.Context, uploader string, id filerecord.ID, name string) (*filerecord.FileRecord, error)
	DeleteFunc      func(ctx context.Context, uploader string, id filerecord.ID) error
	QRCodeFunc      func(code string) ([]byte, error)
}

func (f *FakeUploadService) Upload(ctx context.Context, who ports.Identity, in ports.UploadInput) (*filerecord.FileRecord, error) {
	if f.UploadFunc == nil {
		return nil, errors.New("not used")
	}
	return f.UploadFunc(ctx, who, in)
}
func (f *FakeUploadService) ListUploads(ctx context.Context, uploader string) (filerecord.FileRecords, error) {
	if f.ListUploadsFunc == nil {
		return nil, errors.New("not used")
	}
	return f.ListUploadsFunc(ctx, uploader)
}
func (f *FakeUploadService) Rename(ctx context.Context, uploader string, id filerecord.ID, name string) (*filerecord.FileRecord, error) {
	if f.RenameFunc == nil {
		return nil, errors.New("not used")
	}
	return f.RenameFunc(ctx, uploader, id, name)
}
func (f *FakeUploadService) Delete(ctx context.Context, uploader string, id filerecord.ID) error {
	if f.DeleteFunc == nil {
		return errors.New("not used")
	}
	return f.DeleteFunc(ctx, uploader, id)
}
func (f *FakeUploadService) QRCode(code string) ([]byte, error) {
	if f.QRCodeFunc == nil {
		return nil, errors.New("not used")
	}
	return f.QRCodeFunc(code)
}

type FakeResolver struct {
	ResolveFunc func(ctx context.Context, code string) (*download.Entry, error)
}

func (f *FakeResolver) Resolve(ctx context.Context, code string) (*download.Entry, error) {
	if f.ResolveFunc == nil {
		return nil, errors.New("not used")
	}
	return f.ResolveFunc(ctx, code)
}

type FakeLedger struct {
	LoadFunc   func(ctx context.Context) (download.Ledger, error)
	AppendFunc func(ctx context.Context, e download.Entry) error
	RemoveFunc func(ctx context.Context, id string) error
}

func (f *FakeLedger) Load(ctx context.Context) (download.Ledger, error) {
	if f.LoadFunc == nil {
		return nil, errors.New("not used")
	}
	return f.LoadFunc(ctx)
}
func (f *FakeLedger) Append(ctx context.Context, e download.Entry) error {
	if f.AppendFunc == nil {
		return errors.New("not used")
	}
	return f.AppendFunc(ctx, e)
}
func (f *FakeLedger) Remove(ctx context.Context, id string) error {
	if f.RemoveFunc == nil {
		return errors.New("not used")
	}
	return f.RemoveFunc(ctx, id)
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func SignJWT(t *testing.T, secret string, userID uuid.UUID, email string, exp time.Duration) string {
	t.Helper()
	tok, err := jwtSvc.New(secret).GenerateJWT(userID.String(), email, time.Now().Add(exp))
	require.NoError(t, err)
	return tok
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func doReq(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func doMultipartReq(t *testing.T, r *gin.Engine, path, fileField, fileName string, fileContent []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if fileField != "" && fileName != "" && fileContent != nil {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, _ = fw.Write(fileContent)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, path, &b)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	s, _ := resp["error"].(string)
	return s
}
