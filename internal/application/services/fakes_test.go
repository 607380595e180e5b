package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"uploadit/internal/application/ports"
	"uploadit/internal/domain/filerecord"
	"uploadit/internal/domain/user"
	userDB "uploadit/internal/infrastructure/db/postgres/user"
	"uploadit/internal/infrastructure/metrics"
	"uploadit/internal/infrastructure/mq"
)

func newTestCounter() *prometheus.CounterVec {
	return metrics.NewCounterWith(prometheus.NewRegistry())
}

// memStorage is an ObjectStorage kept in memory; signed URLs point at an httptest server serving the objects.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	mtimes  map[string]time.Time
	srv     *httptest.Server

	WriteErr  error
	SignErr   error
	DeleteErr error
	Deleted   []string
}

func newMemStorage() *memStorage {
	s := &memStorage{
		objects: map[string][]byte{},
		types:   map[string]string{},
		mtimes:  map[string]time.Time{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		b, ok := s.objects[strings.TrimPrefix(r.URL.Path, "/")]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(b)
	}))
	return s
}

func (s *memStorage) Close() { s.srv.Close() }

func (s *memStorage) Write(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	s.types[key] = contentType
	s.mtimes[key] = time.Now()
	return nil
}

func (s *memStorage) CreateSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.SignErr != nil {
		return "", s.SignErr
	}
	return s.srv.URL + "/" + key, nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, key)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *memStorage) List(_ context.Context, prefix string) ([]ports.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.ObjectInfo
	for k, b := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ports.ObjectInfo{Key: k, Size: int64(len(b)), LastModified: s.mtimes[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// memRecords enforces code and path uniqueness the way the uploads table does.
type memRecords struct {
	mu   sync.Mutex
	rows []*filerecord.FileRecord

	InsertFunc       func(ctx context.Context, req filerecord.FileRecord) (*filerecord.FileRecord, error)
	SelectByCodeFunc func(ctx context.Context, code string) (filerecord.FileRecords, error)
	Inserts          []string
}

func (m *memRecords) Insert(ctx context.Context, req filerecord.FileRecord) (*filerecord.FileRecord, error) {
	m.mu.Lock()
	m.Inserts = append(m.Inserts, req.DownloadCode)
	m.mu.Unlock()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.DownloadCode == req.DownloadCode {
			return nil, filerecord.ErrDuplicateCode
		}
		if r.FilePath == req.FilePath {
			return nil, filerecord.ErrDuplicatePath
		}
	}
	rec := req
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	m.rows = append(m.rows, &rec)
	cp := rec
	return &cp, nil
}

func (m *memRecords) SelectByCode(ctx context.Context, code string) (filerecord.FileRecords, error) {
	if m.SelectByCodeFunc != nil {
		return m.SelectByCodeFunc(ctx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out filerecord.FileRecords
	for _, r := range m.rows {
		if r.DownloadCode == code {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRecords) SelectByUploader(_ context.Context, uploader string) (filerecord.FileRecords, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out filerecord.FileRecords
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UploaderIdentity == uploader {
			cp := *m.rows[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRecords) SelectOwned(_ context.Context, id filerecord.ID, uploader string) (*filerecord.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.UploaderIdentity == uploader {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecords) UpdateName(_ context.Context, id filerecord.ID, uploader, name string) (*filerecord.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.UploaderIdentity == uploader {
			r.OriginalName = name
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecords) Delete(_ context.Context, id filerecord.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memRecords) ExistsByPath(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.FilePath == path {
			return true, nil
		}
	}
	return false, nil
}

type seqCodes struct {
	mu    sync.Mutex
	codes []string
	i     int
}

func (s *seqCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.codes) {
		return "", errors.New("sequence exhausted")
	}
	c := s.codes[s.i]
	s.i++
	return c, nil
}

type fakeQR struct{}

func (fakeQR) Encode(content string) ([]byte, error) { return []byte("PNG:" + content), nil }

type recEvents struct {
	mu     sync.Mutex
	events []mq.Event
}

func (r *recEvents) Publish(e mq.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recEvents) PublisherWorker(ctx context.Context) { <-ctx.Done() }

func (r *recEvents) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type fakeTransfer struct {
	DownloadFunc    func(ctx context.Context, url, name string) (string, error)
	DeleteLocalFunc func(ctx context.Context, handle string) error
	Deleted         []string
}

func (f *fakeTransfer) Download(ctx context.Context, url, name string) (string, error) {
	if f.DownloadFunc == nil {
		return "/device/downloads/" + name, nil
	}
	return f.DownloadFunc(ctx, url, name)
}

func (f *fakeTransfer) DeleteLocal(ctx context.Context, handle string) error {
	f.Deleted = append(f.Deleted, handle)
	if f.DeleteLocalFunc == nil {
		return nil
	}
	return f.DeleteLocalFunc(ctx, handle)
}

// memKV counts writes so tests can assert that nothing was persisted.
type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	Sets   int
	GetErr error
	SetErr error
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	m.data[key] = value
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*user.User{}} }

func (m *memUsers) FetchUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) CreateUser(_ context.Context, req user.User) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[req.Email]; ok {
		return nil, userDB.ErrEmailAlreadyExists
	}
	u := req
	u.UUID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[req.Email] = &u
	cp := u
	return &cp, nil
}

func body(s string) io.Reader { return bytes.NewReader([]byte(s)) }
