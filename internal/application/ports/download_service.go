package ports

import (
	"context"

	"uploadit/internal/domain/download"
)

type ResolutionService interface {
	Resolve(ctx context.Context, code string) (*download.Entry, error)
}

type Ledger interface {
	Load(ctx context.Context) (download.Ledger, error)
	Append(ctx context.Context, e download.Entry) error
	Remove(ctx context.Context, id string) error
}
