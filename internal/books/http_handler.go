package books

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lougail/Web-scraping-project/internal/domain"
)

// Handler exposes the query service over HTTP.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHTTPHandler creates the read-side HTTP handler.
func NewHTTPHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Register attaches all read routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.listBooks)
	mux.HandleFunc("GET /books/search", h.searchBooks)
	mux.HandleFunc("GET /books/categories", h.categories)
	mux.HandleFunc("GET /books/random", h.randomBooks)
	mux.HandleFunc("GET /books/count", h.countBooks)
	mux.HandleFunc("GET /books/{id}", h.getBook)
	mux.HandleFunc("GET /books/upc/{upc}", h.getBookByUPC)

	mux.HandleFunc("GET /stats/general", h.generalStats)
	mux.HandleFunc("GET /stats/prices/average", h.averagePrice)
	mux.HandleFunc("GET /stats/categories/top", h.topCategories)
	mux.HandleFunc("GET /stats/prices/by-category", h.pricesByCategory)
	mux.HandleFunc("GET /stats/ratings/distribution", h.ratingDistribution)
	mux.HandleFunc("GET /stats/prices/ranges", h.priceRanges)

	mux.HandleFunc("GET /history/books/{id}", h.bookHistory)
	mux.HandleFunc("GET /history/books/{id}/prices", h.priceHistory)
	mux.HandleFunc("GET /history/price-changes", h.recentPriceChanges)
	mux.HandleFunc("GET /history/stock-alerts", h.stockAlerts)
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.service.ListBooks(r.Context(), ListParams{
		Page:     page,
		PageSize: pageSize,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	minPrice, err := queryFloatPtr(r, "min_price")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	maxPrice, err := queryFloatPtr(r, "max_price")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	minRating, err := queryIntPtr(r, "min_rating")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	maxRating, err := queryIntPtr(r, "max_rating")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.service.SearchBooks(r.Context(), SearchParams{
		Query:     query.Get("q"),
		Category:  query.Get("category"),
		MinPrice:  minPrice,
		MaxPrice:  maxPrice,
		MinRating: minRating,
		MaxRating: maxRating,
		SortBy:    query.Get("sort_by"),
		Order:     query.Get("order"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (h *Handler) randomBooks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 1)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	booksList, err := h.service.RandomBooks(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, booksList)
}

func (h *Handler) countBooks(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountBooks(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, book)
}

func (h *Handler) getBookByUPC(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBookByUPC(r.Context(), r.PathValue("upc"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, book)
}

func (h *Handler) generalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GeneralStats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) averagePrice(w http.ResponseWriter, r *http.Request) {
	avg, err := h.service.AveragePrice(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]float64{"average_price": avg})
}

func (h *Handler) topCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.service.TopCategories(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) pricesByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.PricesByCategory(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ratingDistribution(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.RatingDistribution(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) priceRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.service.PriceRanges(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ranges)
}

func (h *Handler) bookHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	days, err := queryIntPtr(r, "days")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryIntPtr(r, "limit")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	snapshots, err := h.service.BookHistory(r.Context(), id, days, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, snapshots)
}

func (h *Handler) priceHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	days, err := queryIntPtr(r, "days")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	points, err := h.service.PriceHistory(r.Context(), id, days)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, points)
}

func (h *Handler) recentPriceChanges(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	changes, err := h.service.RecentPriceChanges(r.Context(), days, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, changes)
}

func (h *Handler) stockAlerts(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", 10)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	alerts, err := h.service.StockAlerts(r.Context(), threshold)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		h.respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		h.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("id", "must be an integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func queryIntPtr(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer")
	}
	return &v, nil
}

func queryFloatPtr(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a number")
	}
	return &v, nil
}
