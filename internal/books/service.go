// Package books exposes the read side of the catalog: listings, search,
// aggregate statistics, and history queries.
package books

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/lougail/Web-scraping-project/internal/domain"
	"github.com/lougail/Web-scraping-project/internal/repository"
)

// PagedBooks is one page of a book listing plus the total match count.
type PagedBooks struct {
	Items    []domain.Book `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ListParams selects one page of the catalog, optionally scoped to a category.
type ListParams struct {
	Page     int
	PageSize int
	Category string
}

// SearchParams holds the composable search criteria plus pagination and sort.
type SearchParams struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *int
	MaxRating *int
	SortBy    string
	Order     string
	Page      int
	PageSize  int
}

// Service answers catalog queries. It validates parameters, delegates storage
// access to the repositories, and computes derived figures in memory.
type Service struct {
	books     repository.BookRepository
	history   repository.HistoryRepository
	analytics repository.AnalyticsRepository
	log       zerolog.Logger

	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// NewService creates a query service over the given repositories.
func NewService(books repository.BookRepository, history repository.HistoryRepository, analytics repository.AnalyticsRepository, log zerolog.Logger, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		books:           books,
		history:         history,
		analytics:       analytics,
		log:             log,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		now:             time.Now,
	}
}

// ListBooks returns one page of books, optionally limited to a category.
func (s *Service) ListBooks(ctx context.Context, params ListParams) (PagedBooks, error) {
	page, pageSize, err := s.normalizePaging(params.Page, params.PageSize)
	if err != nil {
		return PagedBooks{}, err
	}

	items, err := s.books.List(ctx, params.Category, pageSize, (page-1)*pageSize)
	if err != nil {
		return PagedBooks{}, err
	}
	total, err := s.books.Count(ctx, params.Category)
	if err != nil {
		return PagedBooks{}, err
	}
	return PagedBooks{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetBook returns one book by its internal id.
func (s *Service) GetBook(ctx context.Context, id int64) (domain.Book, error) {
	if id <= 0 {
		return domain.Book{}, domain.NewValidationError("id", "must be a positive integer")
	}
	return s.books.GetByID(ctx, id)
}

// GetBookByUPC returns one book by its stable upc key.
func (s *Service) GetBookByUPC(ctx context.Context, upc string) (domain.Book, error) {
	if upc == "" {
		return domain.Book{}, domain.NewValidationError("upc", "must not be empty")
	}
	return s.books.GetByUPC(ctx, upc)
}

// SearchBooks returns one page of books matching the given criteria.
func (s *Service) SearchBooks(ctx context.Context, params SearchParams) (PagedBooks, error) {
	page, pageSize, err := s.normalizePaging(params.Page, params.PageSize)
	if err != nil {
		return PagedBooks{}, err
	}

	if params.Query != "" && len([]rune(params.Query)) < 2 {
		return PagedBooks{}, domain.NewValidationError("q", "must be at least 2 characters")
	}
	if params.MinPrice != nil && *params.MinPrice < 0 {
		return PagedBooks{}, domain.NewValidationError("min_price", "must not be negative")
	}
	if params.MaxPrice != nil && *params.MaxPrice < 0 {
		return PagedBooks{}, domain.NewValidationError("max_price", "must not be negative")
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MaxPrice < *params.MinPrice {
		return PagedBooks{}, domain.NewValidationError("max_price", "must not be lower than min_price")
	}
	if params.MinRating != nil && (*params.MinRating < 1 || *params.MinRating > 5) {
		return PagedBooks{}, domain.NewValidationError("min_rating", "must be between 1 and 5")
	}
	if params.MaxRating != nil && (*params.MaxRating < 1 || *params.MaxRating > 5) {
		return PagedBooks{}, domain.NewValidationError("max_rating", "must be between 1 and 5")
	}
	if params.MinRating != nil && params.MaxRating != nil && *params.MaxRating < *params.MinRating {
		return PagedBooks{}, domain.NewValidationError("max_rating", "must not be lower than min_rating")
	}

	sort := domain.BookSort{Field: domain.BookSortFieldID, Direction: domain.SortDirectionAsc}
	if params.SortBy != "" {
		field := domain.BookSortField(params.SortBy)
		if !domain.ValidSortField(field) {
			return PagedBooks{}, domain.NewValidationError("sort_by", "must be one of id, title, price, rating")
		}
		sort.Field = field
	}
	switch params.Order {
	case "", string(domain.SortDirectionAsc):
	case string(domain.SortDirectionDesc):
		sort.Direction = domain.SortDirectionDesc
	default:
		return PagedBooks{}, domain.NewValidationError("order", "must be asc or desc")
	}

	filter := domain.BookFilter{
		TitleQuery: params.Query,
		Category:   params.Category,
		MinPrice:   params.MinPrice,
		MaxPrice:   params.MaxPrice,
		MinRating:  params.MinRating,
		MaxRating:  params.MaxRating,
	}

	items, err := s.books.Search(ctx, filter, sort, pageSize, (page-1)*pageSize)
	if err != nil {
		return PagedBooks{}, err
	}
	total, err := s.books.CountSearch(ctx, filter)
	if err != nil {
		return PagedBooks{}, err
	}
	return PagedBooks{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Categories returns the distinct category names, sorted alphabetically.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.books.Categories(ctx)
}

// RandomBooks returns up to limit books drawn at random.
func (s *Service) RandomBooks(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit < 1 || limit > 50 {
		return nil, domain.NewValidationError("limit", "must be between 1 and 50")
	}
	return s.books.Random(ctx, limit)
}

// CountBooks returns the number of books, optionally within one category.
func (s *Service) CountBooks(ctx context.Context, category string) (int64, error) {
	return s.books.Count(ctx, category)
}

// AveragePrice returns the catalog-wide mean price, rounded to two decimals.
// An empty catalog yields 0.0.
func (s *Service) AveragePrice(ctx context.Context) (float64, error) {
	avg, err := s.analytics.AveragePrice(ctx)
	if err != nil {
		return 0, err
	}
	return round2(avg), nil
}

// TopCategories returns the most populated categories, largest first.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]domain.CategoryCount, error) {
	if limit < 1 || limit > 50 {
		return nil, domain.NewValidationError("limit", "must be between 1 and 50")
	}
	return s.analytics.TopCategories(ctx, limit)
}

// PricesByCategory returns the mean price of every category, highest first.
func (s *Service) PricesByCategory(ctx context.Context) ([]domain.CategoryPrice, error) {
	rows, err := s.analytics.AveragePriceByCategory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AveragePrice = round2(rows[i].AveragePrice)
	}
	return rows, nil
}

// RatingDistribution returns the book count per rating value 1..5, ascending.
func (s *Service) RatingDistribution(ctx context.Context) ([]domain.RatingCount, error) {
	return s.analytics.RatingDistribution(ctx)
}

var priceBuckets = []struct {
	label string
	lower float64
	upper float64
}{
	{"0-10", 0, 10},
	{"10-20", 10, 20},
	{"20-30", 20, 30},
	{"30-40", 30, 40},
	{"40-50", 40, 50},
	{"50+", 50, math.Inf(1)},
}

// PriceRanges buckets every book price into fixed histogram ranges. Bucket
// lower bounds are inclusive, upper bounds exclusive.
func (s *Service) PriceRanges(ctx context.Context) ([]domain.PriceRange, error) {
	prices, err := s.analytics.ListPrices(ctx)
	if err != nil {
		return nil, err
	}

	ranges := make([]domain.PriceRange, len(priceBuckets))
	for i, bucket := range priceBuckets {
		ranges[i].Range = bucket.label
	}
	for _, price := range prices {
		for i, bucket := range priceBuckets {
			if price >= bucket.lower && price < bucket.upper {
				ranges[i].Count++
				break
			}
		}
	}
	return ranges, nil
}

// GeneralStats summarizes the whole catalog in one call.
func (s *Service) GeneralStats(ctx context.Context) (domain.GeneralStats, error) {
	total, err := s.books.Count(ctx, "")
	if err != nil {
		return domain.GeneralStats{}, err
	}
	avg, err := s.analytics.AveragePrice(ctx)
	if err != nil {
		return domain.GeneralStats{}, err
	}
	categories, err := s.books.Categories(ctx)
	if err != nil {
		return domain.GeneralStats{}, err
	}
	return domain.GeneralStats{
		TotalBooks:      total,
		AveragePrice:    round2(avg),
		TotalCategories: len(categories),
	}, nil
}

// BookHistory returns a book's snapshots, newest first, optionally windowed
// to the last days and capped at limit.
func (s *Service) BookHistory(ctx context.Context, id int64, days, limit *int) ([]domain.BookSnapshot, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be a positive integer")
	}
	if days != nil && (*days < 1 || *days > 365) {
		return nil, domain.NewValidationError("days", "must be between 1 and 365")
	}
	if limit != nil && (*limit < 1 || *limit > 1000) {
		return nil, domain.NewValidationError("limit", "must be between 1 and 1000")
	}

	if _, err := s.books.GetByID(ctx, id); err != nil {
		return nil, err
	}

	since := s.sinceFromDays(days)
	max := 0
	if limit != nil {
		max = *limit
	}
	return s.history.ListByBook(ctx, id, since, max)
}

// PriceHistory returns a book's price samples in chronological order.
func (s *Service) PriceHistory(ctx context.Context, id int64, days *int) ([]domain.PricePoint, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "must be a positive integer")
	}
	if days != nil && (*days < 1 || *days > 365) {
		return nil, domain.NewValidationError("days", "must be between 1 and 365")
	}

	if _, err := s.books.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.history.PricePoints(ctx, id, s.sinceFromDays(days))
}

// RecentPriceChanges reports books whose two most recent in-window snapshots
// carry different prices, newest movement first.
func (s *Service) RecentPriceChanges(ctx context.Context, days, limit int) ([]domain.PriceChange, error) {
	if days < 1 || days > 90 {
		return nil, domain.NewValidationError("days", "must be between 1 and 90")
	}
	if limit < 1 || limit > 200 {
		return nil, domain.NewValidationError("limit", "must be between 1 and 200")
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	pairs, err := s.history.LatestPairs(ctx, since)
	if err != nil {
		return nil, err
	}

	changes := []domain.PriceChange{}
	for _, pair := range pairs {
		if pair.NewPrice == pair.OldPrice {
			continue
		}
		changes = append(changes, domain.PriceChange{
			BookID:        pair.BookID,
			UPC:           pair.UPC,
			Title:         pair.Title,
			OldPrice:      pair.OldPrice,
			NewPrice:      pair.NewPrice,
			ChangePercent: percentChange(pair.OldPrice, pair.NewPrice),
			ChangedAt:     pair.NewAt,
		})
		if len(changes) == limit {
			break
		}
	}
	return changes, nil
}

// StockAlerts flags books whose stock fell to or below the threshold.
func (s *Service) StockAlerts(ctx context.Context, threshold int) ([]domain.StockAlert, error) {
	if threshold < 0 || threshold > 100 {
		return nil, domain.NewValidationError("threshold", "must be between 0 and 100")
	}

	alerts, err := s.analytics.LowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		if alerts[i].CurrentStock == 0 {
			alerts[i].Status = domain.StockStatusOut
		} else {
			alerts[i].Status = domain.StockStatusLow
		}
	}
	return alerts, nil
}

func (s *Service) normalizePaging(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return 0, 0, domain.NewValidationError("page", "must be at least 1")
	}
	if pageSize == 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize < 1 || pageSize > s.maxPageSize {
		return 0, 0, domain.NewValidationError("page_size", fmt.Sprintf("must be between 1 and %d", s.maxPageSize))
	}
	return page, pageSize, nil
}

func (s *Service) sinceFromDays(days *int) *time.Time {
	if days == nil {
		return nil
	}
	since := s.now().UTC().AddDate(0, 0, -*days)
	return &since
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percentChange(oldPrice, newPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	return round2((newPrice - oldPrice) / oldPrice * 100)
}
