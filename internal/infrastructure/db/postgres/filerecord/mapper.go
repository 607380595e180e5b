package filerecord

import (
	domain "uploadit/internal/domain/filerecord"
)

func fromDBModel(model *Upload) *domain.FileRecord {
	return &domain.FileRecord{
		ID:               model.ID,
		UploaderIdentity: model.UploaderEmail,
		FilePath:         model.FilePath,
		OriginalName:     model.OriginalName,
		DownloadCode:     model.DownloadCode,
		CreatedAt:        model.CreatedAt,
	}
}

func fromDBModels(models Uploads) domain.FileRecords {
	frs := make(domain.FileRecords, len(models))
	for idx, m := range models {
		frs[idx] = fromDBModel(m)
	}

	return frs
}
