package filerecord

// unique constraints of the uploads table
const (
	ConstraintDownloadCode = "uploads_download_code_key"
	ConstraintFilePath     = "uploads_file_path_key"
)

const (
	InsertUpload = `
		INSERT INTO uploads (uploader_email, file_path, original_name, download_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, uploader_email, file_path, original_name, download_code, created_at
	`
	SelectUploadsByCode = `
		SELECT id, uploader_email, file_path, original_name, download_code, created_at
		FROM uploads
		WHERE download_code = $1
		LIMIT 2
	`
	SelectUploadsByUploader = `
		SELECT id, uploader_email, file_path, original_name, download_code, created_at
		FROM uploads
		WHERE uploader_email = $1
		ORDER BY created_at DESC
	`
	SelectOwnedUpload = `
		SELECT id, uploader_email, file_path, original_name, download_code, created_at
		FROM uploads
		WHERE id = $1 AND uploader_email = $2
	`
	UpdateUploadName = `
		UPDATE uploads
		SET original_name = $1
		WHERE id = $2 AND uploader_email = $3
		RETURNING id, uploader_email, file_path, original_name, download_code, created_at
	`
	DeleteUpload       = `DELETE FROM uploads WHERE id = $1`
	SelectPathIsExists = `SELECT EXISTS (SELECT 1 FROM uploads WHERE file_path = $1)`
)
