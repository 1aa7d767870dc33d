// Package normalize converts raw scraped text fields into typed values.
// Every field normalizes independently: malformed input logs a warning and
// falls back to a documented default, it never fails the record.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// ratingWords maps the site's textual star ratings to their values.
var ratingWords = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

var stockPattern = regexp.MustCompile(`\((\d+) available\)`)

// Defaults substituted on malformed input.
const (
	DefaultPrice   = 0.0
	DefaultRating  = 0 // unrated
	DefaultStock   = 0
	DefaultReviews = 0
)

// Normalizer turns RawBookRecords into typed Books.
type Normalizer struct {
	baseURL string
	log     zerolog.Logger
}

// New creates a Normalizer. baseURL is the source site root used to rewrite
// relative cover paths into absolute URLs.
func New(baseURL string, log zerolog.Logger) *Normalizer {
	return &Normalizer{baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// Record normalizes every field of a raw record into a Book. Field failures
// are independent; one bad field never affects the others.
func (n *Normalizer) Record(raw domain.RawBookRecord) domain.Book {
	return domain.Book{
		UPC:             strings.TrimSpace(raw.UPC),
		Title:           strings.TrimSpace(raw.Title),
		Price:           n.Price(raw.Price),
		Rating:          n.Rating(raw.Rating),
		Stock:           n.Stock(raw.Availability),
		Category:        strings.TrimSpace(raw.Category),
		Description:     strings.TrimSpace(raw.Description),
		NumberOfReviews: n.ReviewCount(raw.NumberOfReviews),
		CoverURL:        n.CoverURL(raw.Cover),
		ProductType:     strings.TrimSpace(raw.ProductType),
	}
}

// Price parses a currency string like "£51.77" into 51.77. Returns
// DefaultPrice on unparsable input.
func (n *Normalizer) Price(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPrice
	}

	cleaned := strings.ReplaceAll(raw, "£", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		n.log.Warn().Str("price", raw).Msg("invalid price, using default")
		return DefaultPrice
	}
	return price
}

// Rating maps a star-rating class string ("star-rating Three") to 1..5. The
// last whitespace-separated word carries the value. Unknown words return
// DefaultRating, meaning unrated.
func (n *Normalizer) Rating(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRating
	}

	fields := strings.Fields(raw)
	word := fields[len(fields)-1]
	rating, ok := ratingWords[word]
	if !ok {
		n.log.Warn().Str("rating", raw).Msg("invalid rating, using default")
		return DefaultRating
	}
	return rating
}

// Stock extracts the available count from an availability description like
// "In stock (22 available)". Returns DefaultStock when the pattern is absent.
func (n *Normalizer) Stock(raw string) int {
	match := stockPattern.FindStringSubmatch(raw)
	if match == nil {
		return DefaultStock
	}

	stock, err := strconv.Atoi(match[1])
	if err != nil {
		n.log.Warn().Str("availability", raw).Msg("invalid stock count, using default")
		return DefaultStock
	}
	return stock
}

// ReviewCount parses the review counter. Returns DefaultReviews on failure.
func (n *Normalizer) ReviewCount(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultReviews
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		n.log.Warn().Str("number_of_reviews", raw).Msg("invalid review count, using default")
		return DefaultReviews
	}
	return count
}

// CoverURL rewrites a relative cover path ("../../media/cache/...") into an
// absolute URL rooted at the source site. Empty input yields an empty URL.
func (n *Normalizer) CoverURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	trimmed := raw
	for strings.HasPrefix(trimmed, "../") {
		trimmed = strings.TrimPrefix(trimmed, "../")
	}
	trimmed = strings.TrimPrefix(trimmed, "/")

	return n.baseURL + "/" + trimmed
}
