package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lougail/Web-scraping-project/internal/domain"
	"github.com/lougail/Web-scraping-project/internal/normalize"
	"github.com/lougail/Web-scraping-project/internal/repository"
)

// memoryStore is an in-memory stand-in for the books and book_history tables.
type memoryStore struct {
	nextBookID     int64
	nextSnapshotID int64
	books          map[string]domain.Book
	history        []domain.BookSnapshot
	failAppend     bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{books: map[string]domain.Book{}}
}

func (m *memoryStore) snapshotsFor(upc string) []domain.BookSnapshot {
	out := []domain.BookSnapshot{}
	for _, s := range m.history {
		if s.UPC == upc {
			out = append(out, s)
		}
	}
	return out
}

type stubBooks struct {
	repository.BookRepository
	store *memoryStore
}

func (s *stubBooks) Create(ctx context.Context, book *domain.Book) error {
	if _, ok := s.store.books[book.UPC]; ok {
		return domain.ErrDuplicate
	}
	s.store.nextBookID++
	book.ID = s.store.nextBookID
	s.store.books[book.UPC] = *book
	return nil
}

func (s *stubBooks) GetByUPC(ctx context.Context, upc string) (domain.Book, error) {
	book, ok := s.store.books[upc]
	if !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	return book, nil
}

func (s *stubBooks) Update(ctx context.Context, book domain.Book) error {
	if _, ok := s.store.books[book.UPC]; !ok {
		return domain.ErrNotFound
	}
	s.store.books[book.UPC] = book
	return nil
}

type stubHistory struct {
	repository.HistoryRepository
	store *memoryStore
}

func (s *stubHistory) Append(ctx context.Context, snapshot *domain.BookSnapshot) error {
	if s.store.failAppend {
		return errors.New("append failed")
	}
	s.store.nextSnapshotID++
	snapshot.ID = s.store.nextSnapshotID
	s.store.history = append(s.store.history, *snapshot)
	return nil
}

// missingUPCBooks hides every book from lookups, forcing the insert path even
// when the store already holds the key. This mirrors a row landing between the
// lookup and the insert.
type missingUPCBooks struct {
	*stubBooks
}

func (b missingUPCBooks) GetByUPC(ctx context.Context, upc string) (domain.Book, error) {
	return domain.Book{}, domain.ErrNotFound
}

// memoryRunner mimics transactional behavior: when fn fails, the store is
// restored to its previous state.
type memoryRunner struct {
	store *memoryStore
	books repository.BookRepository // optional stand-in for the default stub
}

func (r *memoryRunner) Run(ctx context.Context, fn func(books repository.BookRepository, history repository.HistoryRepository) error) error {
	savedBooks := make(map[string]domain.Book, len(r.store.books))
	for k, v := range r.store.books {
		savedBooks[k] = v
	}
	savedHistory := append([]domain.BookSnapshot{}, r.store.history...)
	savedBookID, savedSnapshotID := r.store.nextBookID, r.store.nextSnapshotID

	books := r.books
	if books == nil {
		books = &stubBooks{store: r.store}
	}
	err := fn(books, &stubHistory{store: r.store})
	if err != nil {
		r.store.books = savedBooks
		r.store.history = savedHistory
		r.store.nextBookID, r.store.nextSnapshotID = savedBookID, savedSnapshotID
	}
	return err
}

func newTestService(store *memoryStore) *Service {
	n := normalize.New("http://books.toscrape.com", zerolog.Nop())
	return NewService(&memoryRunner{store: store}, n, zerolog.Nop())
}

func rawRecord(upc, price string) domain.RawBookRecord {
	return domain.RawBookRecord{
		Title:           "A Light in the Attic",
		Price:           price,
		Rating:          "star-rating Three",
		Availability:    "In stock (5 available)",
		Category:        "Poetry",
		Description:     "A classic.",
		UPC:             upc,
		NumberOfReviews: "0",
		Cover:           "../../media/cache/fe/72/cover.jpg",
		ProductType:     "Books",
	}
}

func TestReconcileInsertsNewBookWithBaselineSnapshot(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)

	outcome, err := service.Reconcile(context.Background(), rawRecord("k1", "£20.00"))
	if err != nil {
		t.Fatalf("reconcile returned error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected created outcome, got %s", outcome)
	}

	book, ok := store.books["k1"]
	if !ok {
		t.Fatalf("book not persisted")
	}
	if book.Price != 20.0 || book.Rating != 3 || book.Stock != 5 {
		t.Fatalf("unexpected normalized book: %+v", book)
	}
	if book.FirstSeen.IsZero() || book.LastUpdated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	snapshots := store.snapshotsFor("k1")
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 baseline snapshot, got %d", len(snapshots))
	}
	if snapshots[0].BookID != book.ID || snapshots[0].Price != 20.0 {
		t.Fatalf("unexpected snapshot: %+v", snapshots[0])
	}
}

func TestReconcileUnchangedRecordIsNoOp(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)

	record := rawRecord("k1", "£20.00")
	if _, err := service.Reconcile(context.Background(), record); err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}

	outcome, err := service.Reconcile(context.Background(), record)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if outcome != OutcomeUnchanged {
		t.Fatalf("expected unchanged outcome, got %s", outcome)
	}
	if len(store.books) != 1 {
		t.Fatalf("expected exactly one book, got %d", len(store.books))
	}
	if got := len(store.snapshotsFor("k1")); got != 1 {
		t.Fatalf("expected exactly one snapshot after no-op pass, got %d", got)
	}
}

func TestReconcilePriceChangeAppendsSnapshotAndUpdates(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return base }
	if _, err := service.Reconcile(context.Background(), rawRecord("k1", "£20.00")); err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	firstSeen := store.books["k1"].FirstSeen

	service.now = func() time.Time { return base.Add(24 * time.Hour) }
	outcome, err := service.Reconcile(context.Background(), rawRecord("k1", "£15.00"))
	if err != nil {
		t.Fatalf("update reconcile failed: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("expected updated outcome, got %s", outcome)
	}

	book := store.books["k1"]
	if book.Price != 15.0 {
		t.Fatalf("expected updated price 15.0, got %v", book.Price)
	}
	if !book.FirstSeen.Equal(firstSeen) {
		t.Fatalf("first seen must not change on update")
	}
	if !book.LastUpdated.After(firstSeen) {
		t.Fatalf("last updated must advance on update")
	}
	if book.Rating != 3 || book.Stock != 5 {
		t.Fatalf("unchanged tracked fields must survive: %+v", book)
	}

	snapshots := store.snapshotsFor("k1")
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Price != 20.0 || snapshots[1].Price != 15.0 {
		t.Fatalf("history must be ordered [20.0, 15.0], got [%v, %v]", snapshots[0].Price, snapshots[1].Price)
	}
	if !snapshots[1].ScrapedAt.After(snapshots[0].ScrapedAt) {
		t.Fatalf("snapshot timestamps must be non-decreasing")
	}
}

func TestReconcileWriteFailureRollsBackWholeRecord(t *testing.T) {
	store := newMemoryStore()
	store.failAppend = true
	service := newTestService(store)

	outcome, err := service.Reconcile(context.Background(), rawRecord("k1", "£20.00"))
	if err == nil {
		t.Fatalf("expected error from failed snapshot append")
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}
	if len(store.books) != 0 {
		t.Fatalf("book insert must roll back with the snapshot, got %d books", len(store.books))
	}
	if len(store.history) != 0 {
		t.Fatalf("no snapshot must be persisted, got %d", len(store.history))
	}
}

func TestReconcileDuplicateKeyInsertRollsBackAndContinues(t *testing.T) {
	store := newMemoryStore()
	runner := &memoryRunner{store: store, books: missingUPCBooks{&stubBooks{store: store}}}
	n := normalize.New("http://books.toscrape.com", zerolog.Nop())
	service := NewService(runner, n, zerolog.Nop())
	ctx := context.Background()

	if _, err := service.Reconcile(ctx, rawRecord("k1", "£20.00")); err != nil {
		t.Fatalf("initial insert failed: %v", err)
	}

	// The lookup misses but the insert hits the unique key, as with two
	// back-to-back inserts of the same record.
	outcome, err := service.Reconcile(ctx, rawRecord("k1", "£15.00"))
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}
	if store.books["k1"].Price != 20.0 {
		t.Fatalf("conflicting record must not alter the existing book: %+v", store.books["k1"])
	}
	if got := len(store.snapshotsFor("k1")); got != 1 {
		t.Fatalf("conflicting record must leave history untouched, got %d snapshots", got)
	}

	// The pass keeps going: a later clean record still lands.
	summary := service.ReconcileAll(ctx, []domain.RawBookRecord{
		rawRecord("k1", "£15.00"),
		rawRecord("k2", "£30.00"),
	})
	if summary.Failed != 1 || summary.Created != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(store.books) != 2 {
		t.Fatalf("expected 2 books after pass, got %d", len(store.books))
	}
}

func TestReconcileAllContinuesPastFailures(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)

	records := []domain.RawBookRecord{
		rawRecord("k1", "£20.00"),
		{Price: "£9.99"}, // no upc, must fail without stopping the pass
		rawRecord("k2", "£30.00"),
	}

	summary := service.ReconcileAll(context.Background(), records)
	if summary.Total != 3 || summary.Created != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(store.books) != 2 {
		t.Fatalf("expected 2 books persisted, got %d", len(store.books))
	}
}

func TestReconcileScenario(t *testing.T) {
	store := newMemoryStore()
	service := newTestService(store)
	ctx := context.Background()

	// Ingest A: new book with normalized fields and one baseline snapshot.
	if _, err := service.Reconcile(ctx, rawRecord("k1", "£20.00")); err != nil {
		t.Fatalf("ingest A failed: %v", err)
	}
	book := store.books["k1"]
	if book.Price != 20.0 || book.Rating != 3 || book.Stock != 5 {
		t.Fatalf("unexpected book after A: %+v", book)
	}
	if got := len(store.snapshotsFor("k1")); got != 1 {
		t.Fatalf("expected 1 snapshot after A, got %d", got)
	}

	// Re-ingest identical A: still one snapshot.
	if _, err := service.Reconcile(ctx, rawRecord("k1", "£20.00")); err != nil {
		t.Fatalf("re-ingest A failed: %v", err)
	}
	if got := len(store.snapshotsFor("k1")); got != 1 {
		t.Fatalf("expected 1 snapshot after identical re-ingest, got %d", got)
	}

	// Ingest A' with a lower price: price updates, two snapshots [20, 15].
	if _, err := service.Reconcile(ctx, rawRecord("k1", "£15.00")); err != nil {
		t.Fatalf("ingest A' failed: %v", err)
	}
	if store.books["k1"].Price != 15.0 {
		t.Fatalf("expected price 15.0 after A', got %v", store.books["k1"].Price)
	}
	snapshots := store.snapshotsFor("k1")
	if len(snapshots) != 2 || snapshots[0].Price != 20.0 || snapshots[1].Price != 15.0 {
		t.Fatalf("expected history [20.0, 15.0], got %+v", snapshots)
	}
}
