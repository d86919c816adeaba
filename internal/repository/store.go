package repository

import "github.com/jackc/pgx/v5/pgxpool"

// PostgresStore groups the run, finding and rename repositories that share
// one pool.
type PostgresStore struct {
	*RunRepository
	*FindingRepository
	*RenameRepository
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		RunRepository:     NewRunRepository(pool),
		FindingRepository: NewFindingRepository(pool),
		RenameRepository:  NewRenameRepository(pool),
	}
}
