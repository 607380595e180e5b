package ports

import (
	"context"
	"io"

	"uploadit/internal/domain/filerecord"
)

type UploadInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadService interface {
	Upload(ctx context.Context, who Identity, in UploadInput) (*filerecord.FileRecord, error)
	ListUploads(ctx context.Context, uploader string) (filerecord.FileRecords, error)
	Rename(ctx context.Context, uploader string, id filerecord.ID, name string) (*filerecord.FileRecord, error)
	Delete(ctx context.Context, uploader string, id filerecord.ID) error
	QRCode(code string) ([]byte, error)
}
