package filerecord

import (
	"time"

	"github.com/google/uuid"
)

type (
	FileRecord struct {
		ID           uuid.UUID `json:"id"`
		Name         string    `json:"name"`
		DownloadCode string    `json:"download_code"`
		CreatedAt    time.Time `json:"created_at"`
	}
	FileRecords  []FileRecord
	ResponseData struct {
		Data FileRecords `json:"data"`
	}
)
