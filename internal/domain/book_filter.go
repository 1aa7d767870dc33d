package domain

// BookFilter represents the composable search criteria for book listings.
// Nil pointer fields are not applied.
type BookFilter struct {
	TitleQuery string
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *int
	MaxRating  *int
}
