package common

import (
	"context"
	"database/sql"
)

// SqlTX runs f inside a transaction against the main store, rolling back
// if f errors. Every multi-statement operation goes through this, partial
// application is treated as a correctness bug.
func SqlTX(f func(tx *sql.Tx) error) error {
	return SqlTXContext(context.Background(), f)
}

func SqlTXContext(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := PQ.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = f(tx)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
