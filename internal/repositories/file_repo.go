package repositories

import (
	"context"

	"github.com/docarchive/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FileRepo struct {
	pool *pgxpool.Pool
}

func NewFileRepo(pool *pgxpool.Pool) *FileRepo {
	return &FileRepo{pool: pool}
}

func (r *FileRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.File, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title FROM files WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make(map[uuid.UUID]models.File, len(ids))
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.Title); err != nil {
			return nil, err
		}
		files[f.ID] = f
	}
	return files, rows.Err()
}
