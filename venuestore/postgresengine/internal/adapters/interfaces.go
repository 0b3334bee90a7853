package adapters

import "context"

// Querier is the part of DBAdapter and DBTx that runs statements.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the venue store.
type DBAdapter interface {
	Querier
	Begin(ctx context.Context) (DBTx, error)
	Ping(ctx context.Context) error
}

// DBTx is a transaction bound to one pooled connection until Commit or Rollback.
type DBTx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
