package db

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word#1",
		DBName:   "bookwatch",
		SSLMode:  "disable",
	}

	raw := cfg.URL()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("generated URL does not parse: %v", err)
	}
	if u.Scheme != "pgx5" || u.Host != "localhost:5432" || u.Path != "/bookwatch" {
		t.Fatalf("unexpected URL parts: %s", raw)
	}
	password, _ := u.User.Password()
	if password != cfg.Password {
		t.Fatalf("password must round-trip through the URL, got %q", password)
	}
	if u.Query().Get("sslmode") != "disable" {
		t.Fatalf("sslmode missing from %s", raw)
	}
}

// fakeTx records the terminal call made on the transaction.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return b.tx, b.beginErr
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	err := withTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !tx.committed || tx.rolledBack {
		t.Fatalf("expected commit without rollback, got commit=%v rollback=%v", tx.committed, tx.rolledBack)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	cause := errors.New("write failed")
	err := withTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
		return cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("expected the callback error, got %v", err)
	}
	if tx.committed || !tx.rolledBack {
		t.Fatalf("expected rollback without commit, got commit=%v rollback=%v", tx.committed, tx.rolledBack)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("panic must propagate")
			}
		}()
		_ = withTx(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
			panic("boom")
		})
	}()
	if tx.committed || !tx.rolledBack {
		t.Fatalf("expected rollback on panic, got commit=%v rollback=%v", tx.committed, tx.rolledBack)
	}
}

func TestWithTxPropagatesBeginError(t *testing.T) {
	beginErr := errors.New("pool exhausted")
	err := withTx(context.Background(), &fakeBeginner{beginErr: beginErr}, func(pgx.Tx) error {
		t.Fatalf("callback must not run when begin fails")
		return nil
	})
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
}
