package ports

import "context"

type FileTransfer interface {
	// Download fetches url into the device download directory under name
	// and returns the local handle of the written file.
	Download(ctx context.Context, url, name string) (string, error)
	DeleteLocal(ctx context.Context, handle string) error
}

type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
