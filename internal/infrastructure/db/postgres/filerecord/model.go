package filerecord

import (
	"time"

	"github.com/google/uuid"
)

type (
	Upload struct {
		ID            uuid.UUID
		UploaderEmail string
		FilePath      string
		OriginalName  string
		DownloadCode  string

		CreatedAt time.Time
	}
	Uploads []*Upload
)
