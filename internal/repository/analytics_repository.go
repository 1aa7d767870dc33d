package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// analyticsRepository implements the read-only aggregation queries.
type analyticsRepository struct {
	q Querier
}

// NewAnalyticsRepository creates a new analytics repository. Pass a pool or a tx.
func NewAnalyticsRepository(q Querier) AnalyticsRepository {
	return &analyticsRepository{q: q}
}

// AveragePrice returns the raw arithmetic mean of all current prices, 0.0 when
// no books exist. Rounding happens in the service layer.
func (r *analyticsRepository) AveragePrice(ctx context.Context) (float64, error) {
	var avg pgtype.Float8
	if err := r.q.QueryRow(ctx, `SELECT avg(price) FROM books`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to compute average price: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// TopCategories returns categories ranked by book count, descending.
func (r *analyticsRepository) TopCategories(ctx context.Context, limit int) ([]domain.CategoryCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT category, count(*) AS count
		FROM books
		GROUP BY category
		ORDER BY count DESC, category
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank categories: %w", err)
	}
	defer rows.Close()

	results := []domain.CategoryCount{}
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// AveragePriceByCategory returns each category's mean price, sorted by average
// price descending. Rounding happens in the service layer.
func (r *analyticsRepository) AveragePriceByCategory(ctx context.Context) ([]domain.CategoryPrice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT category, avg(price) AS avg_price
		FROM books
		GROUP BY category
		ORDER BY avg_price DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute price by category: %w", err)
	}
	defer rows.Close()

	results := []domain.CategoryPrice{}
	for rows.Next() {
		var c domain.CategoryPrice
		if err := rows.Scan(&c.Category, &c.AveragePrice); err != nil {
			return nil, fmt.Errorf("failed to scan category price: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// RatingDistribution counts books per rating value 1..5, ascending. Unrated
// books (rating 0) are excluded.
func (r *analyticsRepository) RatingDistribution(ctx context.Context) ([]domain.RatingCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT rating, count(*) AS count
		FROM books
		WHERE rating BETWEEN 1 AND 5
		GROUP BY rating
		ORDER BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute rating distribution: %w", err)
	}
	defer rows.Close()

	results := []domain.RatingCount{}
	for rows.Next() {
		var rc domain.RatingCount
		if err := rows.Scan(&rc.Rating, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}
		results = append(results, rc)
	}
	return results, rows.Err()
}

// ListPrices returns every current book price, used by the service for
// histogram bucketing.
func (r *analyticsRepository) ListPrices(ctx context.Context) ([]float64, error) {
	rows, err := r.q.Query(ctx, `SELECT price FROM books`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	prices := []float64{}
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// LowStock returns books with stock at or below the threshold, each with the
// capture time of its most recent snapshot (nil when it has none). Status
// classification happens in the service layer.
func (r *analyticsRepository) LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	rows, err := r.q.Query(ctx, `
		SELECT b.id, b.upc, b.title, b.stock, h.scraped_at
		FROM books b
		LEFT JOIN LATERAL (
			SELECT scraped_at
			FROM book_history
			WHERE book_id = b.id
			ORDER BY scraped_at DESC
			LIMIT 1
		) h ON true
		WHERE b.stock <= $1
		ORDER BY b.stock, b.id`, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock books: %w", err)
	}
	defer rows.Close()

	alerts := []domain.StockAlert{}
	for rows.Next() {
		var a domain.StockAlert
		var lastChecked pgtype.Timestamptz
		if err := rows.Scan(&a.BookID, &a.UPC, &a.Title, &a.CurrentStock, &lastChecked); err != nil {
			return nil, fmt.Errorf("failed to scan stock alert: %w", err)
		}
		if lastChecked.Valid {
			t := lastChecked.Time
			a.LastChecked = &t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
