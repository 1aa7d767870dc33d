package domain

import "time"

// CategoryCount is one row of the top-categories ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// CategoryPrice is the mean price of one category.
type CategoryPrice struct {
	Category     string  `json:"category"`
	AveragePrice float64 `json:"avg_price"`
}

// RatingCount is the number of books holding one rating value.
type RatingCount struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// PriceRange is one bucket of the price histogram.
type PriceRange struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// GeneralStats summarizes the whole catalog.
type GeneralStats struct {
	TotalBooks      int64   `json:"total_books"`
	AveragePrice    float64 `json:"average_price"`
	TotalCategories int     `json:"total_categories"`
}

// PricePoint is one (timestamp, price) sample of a book's price evolution.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// SnapshotPair holds the two most recent snapshots of one book inside an
// observation window, newest first.
type SnapshotPair struct {
	BookID   int64
	UPC      string
	Title    string
	OldPrice float64
	NewPrice float64
	NewAt    time.Time
}

// PriceChange reports a detected price movement between the two most recent
// snapshots of a book.
type PriceChange struct {
	BookID        int64     `json:"book_id"`
	UPC           string    `json:"upc"`
	Title         string    `json:"title"`
	OldPrice      float64   `json:"old_price"`
	NewPrice      float64   `json:"new_price"`
	ChangePercent float64   `json:"change_percent"`
	ChangedAt     time.Time `json:"changed_at"`
}

// Stock alert statuses.
const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
)

// StockAlert flags a book whose stock fell to or below a threshold.
type StockAlert struct {
	BookID       int64      `json:"book_id"`
	UPC          string     `json:"upc"`
	Title        string     `json:"title"`
	CurrentStock int        `json:"current_stock"`
	LastChecked  *time.Time `json:"last_checked"`
	Status       string     `json:"status"`
}
