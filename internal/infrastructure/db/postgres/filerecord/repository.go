package filerecord

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domain "uploadit/internal/domain/filerecord"
	"uploadit/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, req domain.FileRecord) (*domain.FileRecord, error) {
	u := new(Upload)
	err := r.db.QueryRow(
		ctx,
		InsertUpload,
		req.UploaderIdentity, req.FilePath, req.OriginalName, req.DownloadCode,
	).Scan(
		&u.ID,
		&u.UploaderEmail,
		&u.FilePath,
		&u.OriginalName,
		&u.DownloadCode,
		&u.CreatedAt,
	)
	if err != nil {
		switch postgres.ViolatedConstraint(err) {
		case ConstraintDownloadCode:
			return nil, domain.ErrDuplicateCode
		case ConstraintFilePath:
			return nil, domain.ErrDuplicatePath
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) SelectByCode(ctx context.Context, code string) (domain.FileRecords, error) {
	return r.selectMany(ctx, SelectUploadsByCode, code)
}

func (r *Repository) SelectByUploader(ctx context.Context, uploader string) (domain.FileRecords, error) {
	return r.selectMany(ctx, SelectUploadsByUploader, uploader)
}

func (r *Repository) selectMany(ctx context.Context, query string, arg string) (domain.FileRecords, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var us Uploads
	for rows.Next() {
		u := new(Upload)

		if err = rows.Scan(
			&u.ID,
			&u.UploaderEmail,
			&u.FilePath,
			&u.OriginalName,
			&u.DownloadCode,
			&u.CreatedAt,
		); err != nil {
			return nil, err
		}

		us = append(us, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(us), nil
}

func (r *Repository) SelectOwned(ctx context.Context, id domain.ID, uploader string) (*domain.FileRecord, error) {
	return r.selectOne(ctx, SelectOwnedUpload, id, uploader)
}

func (r *Repository) UpdateName(ctx context.Context, id domain.ID, uploader, name string) (*domain.FileRecord, error) {
	return r.selectOne(ctx, UpdateUploadName, name, id, uploader)
}

func (r *Repository) selectOne(ctx context.Context, query string, args ...any) (*domain.FileRecord, error) {
	u := new(Upload)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.UploaderEmail,
		&u.FilePath,
		&u.OriginalName,
		&u.DownloadCode,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) Delete(ctx context.Context, id domain.ID) error {
	_, err := r.db.Exec(ctx, DeleteUpload, id)
	return err
}

func (r *Repository) ExistsByPath(ctx context.Context, path string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, SelectPathIsExists, path).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
