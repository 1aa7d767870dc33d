package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// historyRepository implements HistoryRepository over a Querier (pool or tx).
type historyRepository struct {
	q Querier
}

// NewHistoryRepository creates a new history repository. Pass a pool or a tx.
func NewHistoryRepository(q Querier) HistoryRepository {
	return &historyRepository{q: q}
}

// Append writes one immutable snapshot row and fills in its assigned id.
func (r *historyRepository) Append(ctx context.Context, snapshot *domain.BookSnapshot) error {
	query := `
		INSERT INTO book_history (book_id, upc, price, stock, rating, number_of_reviews, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		snapshot.BookID, snapshot.UPC, snapshot.Price, snapshot.Stock,
		snapshot.Rating, snapshot.NumberOfReviews, snapshot.ScrapedAt,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// ListByBook returns a book's snapshots newest first, optionally restricted to
// a window and capped at limit (0 means no cap).
func (r *historyRepository) ListByBook(ctx context.Context, bookID int64, since *time.Time, limit int) ([]domain.BookSnapshot, error) {
	query := `
		SELECT id, book_id, upc, price, stock, rating, number_of_reviews, scraped_at
		FROM book_history
		WHERE book_id = $1`
	args := []any{bookID}

	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(` AND scraped_at >= $%d`, len(args))
	}
	query += ` ORDER BY scraped_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.BookSnapshot{}
	for rows.Next() {
		var s domain.BookSnapshot
		if err := rows.Scan(&s.ID, &s.BookID, &s.UPC, &s.Price, &s.Stock, &s.Rating, &s.NumberOfReviews, &s.ScrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// PricePoints projects a book's snapshots to (timestamp, price) pairs ordered
// by capture time ascending, optionally restricted to a window.
func (r *historyRepository) PricePoints(ctx context.Context, bookID int64, since *time.Time) ([]domain.PricePoint, error) {
	query := `SELECT scraped_at, price FROM book_history WHERE book_id = $1`
	args := []any{bookID}

	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(` AND scraped_at >= $%d`, len(args))
	}
	query += ` ORDER BY scraped_at ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list price points: %w", err)
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestPairs returns, for every book with at least two snapshots since the
// cutoff, the prices of its two most recent in-window snapshots together with
// the later capture time.
func (r *historyRepository) LatestPairs(ctx context.Context, since time.Time) ([]domain.SnapshotPair, error) {
	query := `
		WITH recent AS (
			SELECT book_id, price, scraped_at,
			       row_number() OVER (PARTITION BY book_id ORDER BY scraped_at DESC) AS rn
			FROM book_history
			WHERE scraped_at >= $1
		)
		SELECT b.id, b.upc, b.title, older.price, newer.price, newer.scraped_at
		FROM recent newer
		JOIN recent older ON older.book_id = newer.book_id AND older.rn = 2
		JOIN books b ON b.id = newer.book_id
		WHERE newer.rn = 1`

	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot pairs: %w", err)
	}
	defer rows.Close()

	pairs := []domain.SnapshotPair{}
	for rows.Next() {
		var p domain.SnapshotPair
		if err := rows.Scan(&p.BookID, &p.UPC, &p.Title, &p.OldPrice, &p.NewPrice, &p.NewAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
