package repository

import (
	"context"
	"time"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// BookRepository defines the interface for current-state book operations
type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	GetByUPC(ctx context.Context, upc string) (domain.Book, error)
	Update(ctx context.Context, book domain.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, category string, limit, offset int) ([]domain.Book, error)
	Count(ctx context.Context, category string) (int64, error)
	Search(ctx context.Context, filter domain.BookFilter, sort domain.BookSort, limit, offset int) ([]domain.Book, error)
	CountSearch(ctx context.Context, filter domain.BookFilter) (int64, error)
	Categories(ctx context.Context) ([]string, error)
	Random(ctx context.Context, limit int) ([]domain.Book, error)
}

// HistoryRepository defines the interface for the append-only snapshot table
type HistoryRepository interface {
	Append(ctx context.Context, snapshot *domain.BookSnapshot) error
	ListByBook(ctx context.Context, bookID int64, since *time.Time, limit int) ([]domain.BookSnapshot, error)
	PricePoints(ctx context.Context, bookID int64, since *time.Time) ([]domain.PricePoint, error)
	LatestPairs(ctx context.Context, since time.Time) ([]domain.SnapshotPair, error)
}

// AnalyticsRepository defines the read-only aggregation queries over the store
type AnalyticsRepository interface {
	AveragePrice(ctx context.Context) (float64, error)
	TopCategories(ctx context.Context, limit int) ([]domain.CategoryCount, error)
	AveragePriceByCategory(ctx context.Context) ([]domain.CategoryPrice, error)
	RatingDistribution(ctx context.Context) ([]domain.RatingCount, error)
	ListPrices(ctx context.Context) ([]float64, error)
	LowStock(ctx context.Context, threshold int) ([]domain.StockAlert, error)
}
