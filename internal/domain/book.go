package domain

import "time"

// Book is the current-state record for one tracked product, keyed by its UPC.
type Book struct {
	ID              int64     `json:"id"`
	UPC             string    `json:"upc"`
	Title           string    `json:"title"`
	Price           float64   `json:"price"`
	Rating          int       `json:"rating"`
	Stock           int       `json:"stock"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	NumberOfReviews int       `json:"number_of_reviews"`
	CoverURL        string    `json:"cover"`
	ProductType     string    `json:"product_type"`
	FirstSeen       time.Time `json:"first_seen"`
	LastUpdated     time.Time `json:"last_updated"`
}

// TrackedFieldsEqual reports whether the tracked fields (price, stock, rating,
// review count) match. Exact equality, no numeric tolerance.
func (b Book) TrackedFieldsEqual(other Book) bool {
	return b.Price == other.Price &&
		b.Stock == other.Stock &&
		b.Rating == other.Rating &&
		b.NumberOfReviews == other.NumberOfReviews
}

// ApplyTracked overwrites the tracked fields from other and refreshes the
// non-tracked presentation fields. The UPC and timestamps are left alone.
func (b *Book) ApplyTracked(other Book) {
	b.Price = other.Price
	b.Stock = other.Stock
	b.Rating = other.Rating
	b.NumberOfReviews = other.NumberOfReviews
	b.Title = other.Title
	b.Category = other.Category
	b.Description = other.Description
	b.CoverURL = other.CoverURL
	b.ProductType = other.ProductType
}

// BookSnapshot is an immutable capture of a book's tracked fields at one point
// in time. Snapshots are only ever appended, never updated or deleted, except
// via cascade when the owning book is removed.
type BookSnapshot struct {
	ID              int64     `json:"id"`
	BookID          int64     `json:"book_id"`
	UPC             string    `json:"upc"`
	Price           float64   `json:"price"`
	Stock           int       `json:"stock"`
	Rating          int       `json:"rating"`
	NumberOfReviews int       `json:"number_of_reviews"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// NewBookSnapshot captures the tracked fields of a book at the given time.
func NewBookSnapshot(b Book, at time.Time) BookSnapshot {
	return BookSnapshot{
		BookID:          b.ID,
		UPC:             b.UPC,
		Price:           b.Price,
		Stock:           b.Stock,
		Rating:          b.Rating,
		NumberOfReviews: b.NumberOfReviews,
		ScrapedAt:       at,
	}
}

// RawBookRecord is one scraped product as produced by the crawler, all fields
// still text. Optional fields are empty strings.
type RawBookRecord struct {
	Title           string `json:"title"`
	Price           string `json:"price"`
	Rating          string `json:"rating"`
	Availability    string `json:"availability"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	UPC             string `json:"upc"`
	NumberOfReviews string `json:"number_of_reviews"`
	Cover           string `json:"cover"`
	ProductType     string `json:"product_type"`
}
