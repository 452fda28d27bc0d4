package repositories

import (
	"context"
	"fmt"

	"github.com/docarchive/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actor directory tables.
const (
	OfficersTable = "officers"
	AdminsTable   = "admins"
)

// ActorRepo reads one actor directory. The officer and admin directories
// share a shape and differ only by table.
type ActorRepo struct {
	pool  *pgxpool.Pool
	table string
}

func NewActorRepo(pool *pgxpool.Pool, table string) *ActorRepo {
	return &ActorRepo{pool: pool, table: table}
}

func NewOfficerRepo(pool *pgxpool.Pool) *ActorRepo {
	return NewActorRepo(pool, OfficersTable)
}

func NewAdminRepo(pool *pgxpool.Pool) *ActorRepo {
	return NewActorRepo(pool, AdminsTable)
}

// GetByIDs returns the actors found among ids, keyed by id. Missing ids are
// simply absent from the result.
func (r *ActorRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Actor, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, first_name, last_name FROM %s WHERE id = ANY($1)
	`, r.table), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actors := make(map[uuid.UUID]models.Actor, len(ids))
	for rows.Next() {
		var a models.Actor
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		actors[a.ID] = a
	}
	return actors, rows.Err()
}
