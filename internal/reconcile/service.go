// Package reconcile decides, for each incoming scraped record, whether it is a
// new book, an unchanged book, or a changed book, and applies the matching
// store writes atomically.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lougail/Web-scraping-project/internal/domain"
	"github.com/lougail/Web-scraping-project/internal/normalize"
	"github.com/lougail/Web-scraping-project/internal/repository"
)

// TxRunner executes a callback inside one store transaction with tx-bound
// repositories. Implemented by repository.TxRunner.
type TxRunner interface {
	Run(ctx context.Context, fn func(books repository.BookRepository, history repository.HistoryRepository) error) error
}

// Outcome is the terminal state of one record's reconciliation.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// Summary reports the result of one ingestion pass.
type Summary struct {
	RunID     uuid.UUID `json:"run_id"`
	Total     int       `json:"total"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
}

// Service is the reconciliation engine. It processes records sequentially;
// each record's lookup and conditional writes form one transaction.
type Service struct {
	runner     TxRunner
	normalizer *normalize.Normalizer
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a reconciliation service.
func NewService(runner TxRunner, normalizer *normalize.Normalizer, log zerolog.Logger) *Service {
	return &Service{
		runner:     runner,
		normalizer: normalizer,
		log:        log,
		now:        time.Now,
	}
}

// ReconcileAll runs one ingestion pass over the raw records. Record failures
// are logged and counted but never abort the pass.
func (s *Service) ReconcileAll(ctx context.Context, records []domain.RawBookRecord) Summary {
	summary := Summary{RunID: uuid.New(), Total: len(records)}
	runLog := s.log.With().Stringer("run_id", summary.RunID).Logger()

	for _, raw := range records {
		outcome, err := s.Reconcile(ctx, raw)
		switch outcome {
		case OutcomeCreated:
			summary.Created++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeUnchanged:
			summary.Unchanged++
		case OutcomeFailed:
			summary.Failed++
			runLog.Error().Err(err).Str("upc", raw.UPC).Msg("record reconciliation failed")
		}
	}

	runLog.Info().
		Int("total", summary.Total).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Msg("ingestion pass finished")

	return summary
}

// Reconcile normalizes one raw record and applies insert, update-with-history,
// or no-op against the store. All writes for the record happen in one
// transaction; any failure rolls the whole record back.
func (s *Service) Reconcile(ctx context.Context, raw domain.RawBookRecord) (Outcome, error) {
	incoming := s.normalizer.Record(raw)
	if incoming.UPC == "" {
		return OutcomeFailed, errors.New("record has no upc")
	}
	if incoming.Title == "" {
		return OutcomeFailed, fmt.Errorf("record %s has no title", incoming.UPC)
	}

	outcome := OutcomeFailed
	err := s.runner.Run(ctx, func(books repository.BookRepository, history repository.HistoryRepository) error {
		now := s.now().UTC()

		existing, err := books.GetByUPC(ctx, incoming.UPC)
		if errors.Is(err, domain.ErrNotFound) {
			if err := s.insert(ctx, books, history, incoming, now); err != nil {
				return err
			}
			outcome = OutcomeCreated
			return nil
		}
		if err != nil {
			return err
		}

		if existing.TrackedFieldsEqual(incoming) {
			outcome = OutcomeUnchanged
			return nil
		}

		if err := s.update(ctx, books, history, existing, incoming, now); err != nil {
			return err
		}
		outcome = OutcomeUpdated
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}
	return outcome, nil
}

// insert creates the book and its baseline snapshot.
func (s *Service) insert(ctx context.Context, books repository.BookRepository, history repository.HistoryRepository, book domain.Book, now time.Time) error {
	book.FirstSeen = now
	book.LastUpdated = now
	if err := books.Create(ctx, &book); err != nil {
		return err
	}

	snapshot := domain.NewBookSnapshot(book, now)
	if err := history.Append(ctx, &snapshot); err != nil {
		return err
	}
	return nil
}

// update appends a snapshot with the new tracked values, then overwrites the
// current record. Non-tracked fields are refreshed as a side effect.
func (s *Service) update(ctx context.Context, books repository.BookRepository, history repository.HistoryRepository, existing, incoming domain.Book, now time.Time) error {
	existing.ApplyTracked(incoming)
	existing.LastUpdated = now

	snapshot := domain.NewBookSnapshot(existing, now)
	if err := history.Append(ctx, &snapshot); err != nil {
		return err
	}
	if err := books.Update(ctx, existing); err != nil {
		return err
	}
	return nil
}
