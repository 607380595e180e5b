package filerecord

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateCode is returned by Insert when the download code is already taken.
	ErrDuplicateCode = errors.New("download code already exists")
	// ErrDuplicatePath means another record already owns the storage key.
	ErrDuplicatePath = errors.New("file path already exists")
)

type (
	ID         = uuid.UUID
	FileRecord struct {
		ID               ID
		UploaderIdentity string
		FilePath         string
		OriginalName     string
		DownloadCode     string
		CreatedAt        time.Time
	}
	FileRecords []*FileRecord
)
