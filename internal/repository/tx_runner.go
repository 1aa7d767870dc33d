package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lougail/Web-scraping-project/internal/db"
)

// TxRunner executes callbacks inside one database transaction, handing the
// callback repositories bound to that transaction.
type TxRunner struct {
	conn *db.Connection
}

// NewTxRunner builds the runner on top of the connection.
func NewTxRunner(conn *db.Connection) *TxRunner {
	return &TxRunner{conn: conn}
}

// Run invokes fn with tx-bound repositories through Connection.WithTx, which
// commits or rolls back depending on fn's result.
func (r *TxRunner) Run(ctx context.Context, fn func(books BookRepository, history HistoryRepository) error) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(NewBookRepository(tx), NewHistoryRepository(tx))
	})
}
