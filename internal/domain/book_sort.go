package domain

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// BookSortField enumerates fields that can be sorted when listing books.
type BookSortField string

const (
	BookSortFieldID     BookSortField = "id"
	BookSortFieldTitle  BookSortField = "title"
	BookSortFieldPrice  BookSortField = "price"
	BookSortFieldRating BookSortField = "rating"
)

// BookSort captures ordering preferences for book listings.
type BookSort struct {
	Field     BookSortField
	Direction SortDirection
}

// ValidSortField reports whether the field is one of the sortable columns.
func ValidSortField(f BookSortField) bool {
	switch f {
	case BookSortFieldID, BookSortFieldTitle, BookSortFieldPrice, BookSortFieldRating:
		return true
	}
	return false
}
