package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

const bookColumns = `id, upc, title, price, rating, stock, category, description,
	number_of_reviews, cover, product_type, first_seen, last_updated`

// bookRepository implements BookRepository over a Querier (pool or tx).
type bookRepository struct {
	q Querier
}

// NewBookRepository creates a new book repository. Pass a pool or a tx.
func NewBookRepository(q Querier) BookRepository {
	return &bookRepository{q: q}
}

// Create inserts a new book and fills in its assigned id and timestamps.
// A duplicate UPC surfaces as domain.ErrDuplicate.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (upc, title, price, rating, stock, category, description, number_of_reviews, cover, product_type, first_seen, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		book.UPC, book.Title, book.Price, book.Rating, book.Stock,
		book.Category, book.Description, book.NumberOfReviews,
		book.CoverURL, book.ProductType, book.FirstSeen, book.LastUpdated,
	).Scan(&book.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

// GetByID retrieves a book by internal id.
func (r *bookRepository) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	row := r.q.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

// GetByUPC retrieves a book by its natural key.
func (r *bookRepository) GetByUPC(ctx context.Context, upc string) (domain.Book, error) {
	row := r.q.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE upc = $1`, upc)
	return scanBook(row)
}

// Update overwrites a book's mutable fields. The UPC and first_seen are never
// rewritten.
func (r *bookRepository) Update(ctx context.Context, book domain.Book) error {
	query := `
		UPDATE books
		SET title = $2, price = $3, rating = $4, stock = $5, category = $6,
		    description = $7, number_of_reviews = $8, cover = $9,
		    product_type = $10, last_updated = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		book.ID, book.Title, book.Price, book.Rating, book.Stock,
		book.Category, book.Description, book.NumberOfReviews,
		book.CoverURL, book.ProductType, book.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a book; its history rows go with it via the ON DELETE
// CASCADE on book_history.book_id. Administrative use only, nothing in the
// ingestion or query paths removes books.
func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns a page of books, optionally restricted to one category.
func (r *bookRepository) List(ctx context.Context, category string, limit, offset int) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// Count returns the number of books, optionally restricted to one category.
func (r *bookRepository) Count(ctx context.Context, category string) (int64, error) {
	var count int64
	var err error
	if category != "" {
		err = r.q.QueryRow(ctx, `SELECT count(*) FROM books WHERE category = $1`, category).Scan(&count)
	} else {
		err = r.q.QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// Search applies the composed filter, sorts by a whitelisted column, and pages
// the result.
func (r *bookRepository) Search(ctx context.Context, filter domain.BookFilter, sort domain.BookSort, limit, offset int) ([]domain.Book, error) {
	where, args := buildSearchWhere(filter)

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if sort.Direction == domain.SortDirectionDesc {
		direction = "DESC"
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where +
		fmt.Sprintf(` ORDER BY %s %s LIMIT $%d OFFSET $%d`, column, direction, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// CountSearch counts the rows the same filter would match.
func (r *bookRepository) CountSearch(ctx context.Context, filter domain.BookFilter) (int64, error) {
	where, args := buildSearchWhere(filter)

	var count int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM books`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count search results: %w", err)
	}
	return count, nil
}

// Categories returns the distinct categories sorted alphabetically.
func (r *bookRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT category FROM books WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Random returns up to limit books in random order.
func (r *bookRepository) Random(ctx context.Context, limit int) ([]domain.Book, error) {
	rows, err := r.q.Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to pick random books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

var sortColumns = map[domain.BookSortField]string{
	domain.BookSortFieldID:     "id",
	domain.BookSortFieldTitle:  "title",
	domain.BookSortFieldPrice:  "price",
	domain.BookSortFieldRating: "rating",
}

func buildSearchWhere(filter domain.BookFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.TitleQuery != "" {
		add("title ILIKE $%d", "%"+filter.TitleQuery+"%")
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		add("rating >= $%d", *filter.MinRating)
	}
	if filter.MaxRating != nil {
		add("rating <= $%d", *filter.MaxRating)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID, &b.UPC, &b.Title, &b.Price, &b.Rating, &b.Stock,
		&b.Category, &b.Description, &b.NumberOfReviews,
		&b.CoverURL, &b.ProductType, &b.FirstSeen, &b.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, fmt.Errorf("failed to scan book: %w", err)
	}
	return b, nil
}

func collectBooks(rows pgx.Rows) ([]domain.Book, error) {
	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID, &b.UPC, &b.Title, &b.Price, &b.Rating, &b.Stock,
			&b.Category, &b.Description, &b.NumberOfReviews,
			&b.CoverURL, &b.ProductType, &b.FirstSeen, &b.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
