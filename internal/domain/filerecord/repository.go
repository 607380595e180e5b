package filerecord

import (
	"context"
)

type Repository interface {
	Insert(ctx context.Context, req FileRecord) (*FileRecord, error)
	// SelectByCode returns every row carrying the code; callers treat
	// anything but a single row as a failed lookup.
	SelectByCode(ctx context.Context, code string) (FileRecords, error)
	SelectByUploader(ctx context.Context, uploader string) (FileRecords, error)
	SelectOwned(ctx context.Context, id ID, uploader string) (*FileRecord, error)
	UpdateName(ctx context.Context, id ID, uploader, name string) (*FileRecord, error)
	Delete(ctx context.Context, id ID) error
	ExistsByPath(ctx context.Context, path string) (bool, error)
}
