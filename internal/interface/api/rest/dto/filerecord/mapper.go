package filerecord

import (
	"uploadit/internal/domain/filerecord"
)

// ToResponseFileRecord leaves out the storage key; clients only ever see the code.
func ToResponseFileRecord(rec filerecord.FileRecord) FileRecord {
	return FileRecord{
		ID:           rec.ID,
		Name:         rec.OriginalName,
		DownloadCode: rec.DownloadCode,
		CreatedAt:    rec.CreatedAt,
	}
}

func ToResponseFileRecords(recs filerecord.FileRecords) FileRecords {
	out := make(FileRecords, len(recs))
	for idx, r := range recs {
		out[idx] = ToResponseFileRecord(*r)
	}

	return out
}
