package pipeline

import "sync"

// Failure records why one card failed.
type Failure struct {
	CardID int64  `json:"card_id"`
	Reason string `json:"reason"`
}

// Report aggregates the outcome of a series run. It is mutated while the run
// is in flight (cards may complete concurrently) and read-only once returned.
type Report struct {
	SeriesID   int64 `json:"series_id"`
	TotalCards int   `json:"total_cards"`

	mu             sync.Mutex
	processedCards int
	failures       []Failure
}

// NewReport creates an empty report for a series of totalCards cards.
func NewReport(seriesID int64, totalCards int) *Report {
	return &Report{SeriesID: seriesID, TotalCards: totalCards}
}

// MarkSuccess counts one completed card.
func (r *Report) MarkSuccess() {
	r.mu.Lock()
	r.processedCards++
	r.mu.Unlock()
}

// MarkFailure records one failed card.
func (r *Report) MarkFailure(cardID int64, reason string) {
	r.mu.Lock()
	r.failures = append(r.failures, Failure{CardID: cardID, Reason: reason})
	r.mu.Unlock()
}

// ProcessedCards returns the number of cards that completed every step.
func (r *Report) ProcessedCards() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processedCards
}

// Failures returns a copy of the recorded failures.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Snapshot is the serializable form of a report.
type Snapshot struct {
	SeriesID       int64     `json:"series_id"`
	TotalCards     int       `json:"total_cards"`
	ProcessedCards int       `json:"processed_cards"`
	Failures       []Failure `json:"failures"`
}

// Snapshot captures the report's current state for serialization.
func (r *Report) Snapshot() Snapshot {
	return Snapshot{
		SeriesID:       r.SeriesID,
		TotalCards:     r.TotalCards,
		ProcessedCards: r.ProcessedCards(),
		Failures:       r.Failures(),
	}
}
