package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/models"
)

type stubCardRepo struct {
	mu      sync.Mutex
	cards   []*models.SeriesCard
	findErr error
	saveErr error
	saved   []int64
}

func (s *stubCardRepo) FindProcessableCards(ctx context.Context, seriesID int64) ([]*models.SeriesCard, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.cards, nil
}

func (s *stubCardRepo) SaveCard(ctx context.Context, card *models.SeriesCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, card.ID)
	return nil
}

// recordingStep appends its name to a shared trace and optionally fails for
// selected cards.
type recordingStep struct {
	name    string
	order   int
	mu      *sync.Mutex
	trace   *[]string
	failFor map[int64]error
}

func (s *recordingStep) Name() string { return s.name }
func (s *recordingStep) Order() int   { return s.order }

func (s *recordingStep) Handle(ctx context.Context, cc *CardContext) error {
	s.mu.Lock()
	*s.trace = append(*s.trace, s.name)
	s.mu.Unlock()
	if err, ok := s.failFor[cc.Card.ID]; ok {
		return err
	}
	return nil
}

func newRecordingChain(trace *[]string, mu *sync.Mutex, failFor map[int64]error) []Handler {
	return []Handler{
		&recordingStep{name: "third", order: 30, mu: mu, trace: trace, failFor: failFor},
		&recordingStep{name: "first", order: 10, mu: mu, trace: trace},
		&recordingStep{name: "second", order: 20, mu: mu, trace: trace},
	}
}

func makeCards(ids ...int64) []*models.SeriesCard {
	cards := make([]*models.SeriesCard, len(ids))
	for i, id := range ids {
		cards[i] = &models.SeriesCard{ID: id, SeriesID: 1, FrontImgURL: "f.jpg", BackImgURL: "b.jpg"}
	}
	return cards
}

func TestRunExecutesStepsInDeclaredOrder(t *testing.T) {
	var trace []string
	var mu sync.Mutex
	repo := &stubCardRepo{cards: makeCards(1)}
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, nil), 1, zap.NewNop())

	report, err := runner.Run(context.Background(), &models.ProductSeries{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ProcessedCards() != 1 {
		t.Fatalf("expected 1 processed card, got %d", report.ProcessedCards())
	}
	want := []string{"first", "second", "third"}
	if len(trace) != len(want) {
		t.Fatalf("expected %d step executions, got %v", len(want), trace)
	}
	for i, name := range want {
		if trace[i] != name {
			t.Fatalf("step %d: expected %q, got %v", i, name, trace)
		}
	}
}

func TestRunIsolatesCardFailures(t *testing.T) {
	var trace []string
	var mu sync.Mutex
	repo := &stubCardRepo{cards: makeCards(1, 2, 3)}
	failFor := map[int64]error{2: errors.New("crop exploded")}
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, failFor), 2, zap.NewNop())

	report, err := runner.Run(context.Background(), &models.ProductSeries{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCards != 3 {
		t.Fatalf("expected total 3, got %d", report.TotalCards)
	}
	if report.ProcessedCards() != 2 {
		t.Fatalf("expected 2 successes, got %d", report.ProcessedCards())
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].CardID != 2 {
		t.Fatalf("expected card 2 to fail, got %+v", failures)
	}
	if !strings.Contains(failures[0].Reason, "crop exploded") {
		t.Fatalf("failure reason should carry the cause, got %q", failures[0].Reason)
	}
	if !strings.Contains(failures[0].Reason, "third") {
		t.Fatalf("failure reason should name the step, got %q", failures[0].Reason)
	}

	if len(repo.saved) != 2 {
		t.Fatalf("only successful cards are persisted, got %v", repo.saved)
	}
	for _, id := range repo.saved {
		if id == 2 {
			t.Fatal("failed card must not be persisted")
		}
	}
}

func TestRunEmptySeries(t *testing.T) {
	repo := &stubCardRepo{}
	var trace []string
	var mu sync.Mutex
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, nil), 4, zap.NewNop())

	report, err := runner.Run(context.Background(), &models.ProductSeries{ID: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCards != 0 || report.ProcessedCards() != 0 || len(report.Failures()) != 0 {
		t.Fatalf("expected empty report, got %+v", report.Snapshot())
	}
}

func TestRunLoadFailure(t *testing.T) {
	repo := &stubCardRepo{findErr: errors.New("db gone")}
	runner := NewRunner(repo, nil, 4, zap.NewNop())

	if _, err := runner.Run(context.Background(), &models.ProductSeries{ID: 1}); err == nil {
		t.Fatal("expected load error to propagate")
	}
}

func TestRunSaveFailureCountsAsCardFailure(t *testing.T) {
	var trace []string
	var mu sync.Mutex
	repo := &stubCardRepo{cards: makeCards(1), saveErr: errors.New("save failed")}
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, nil), 1, zap.NewNop())

	report, err := runner.Run(context.Background(), &models.ProductSeries{ID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ProcessedCards() != 0 || len(report.Failures()) != 1 {
		t.Fatalf("expected persistence failure in report, got %+v", report.Snapshot())
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 2

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	gate := &concurrencyGauge{mu: &mu, inFlight: &inFlight, maxInFlight: &maxInFlight}

	repo := &stubCardRepo{cards: makeCards(1, 2, 3, 4, 5, 6)}
	runner := NewRunner(repo, []Handler{gate}, workers, zap.NewNop())

	if _, err := runner.Run(context.Background(), &models.ProductSeries{ID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight > workers {
		t.Fatalf("observed %d concurrent cards, worker bound is %d", maxInFlight, workers)
	}
}

type concurrencyGauge struct {
	mu          *sync.Mutex
	inFlight    *int
	maxInFlight *int
}

func (p *concurrencyGauge) Name() string { return "gauge" }
func (p *concurrencyGauge) Order() int   { return 10 }

func (p *concurrencyGauge) Handle(ctx context.Context, cc *CardContext) error {
	p.mu.Lock()
	*p.inFlight++
	if *p.inFlight > *p.maxInFlight {
		*p.maxInFlight = *p.inFlight
	}
	p.mu.Unlock()

	p.mu.Lock()
	*p.inFlight--
	p.mu.Unlock()
	return nil
}

func TestProcessCardRunsChainAndPersists(t *testing.T) {
	var trace []string
	var mu sync.Mutex
	repo := &stubCardRepo{}
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, nil), 1, zap.NewNop())

	card := &models.SeriesCard{ID: 7}
	if err := runner.ProcessCard(context.Background(), &models.ProductSeries{ID: 1}, card); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 1 || repo.saved[0] != 7 {
		t.Fatalf("expected card 7 persisted, got %v", repo.saved)
	}
}

func TestProcessCardFailureSkipsPersistence(t *testing.T) {
	var trace []string
	var mu sync.Mutex
	failFor := map[int64]error{7: errors.New("bad scan")}
	repo := &stubCardRepo{}
	runner := NewRunner(repo, newRecordingChain(&trace, &mu, failFor), 1, zap.NewNop())

	card := &models.SeriesCard{ID: 7}
	if err := runner.ProcessCard(context.Background(), &models.ProductSeries{ID: 1}, card); err == nil {
		t.Fatal("expected chain failure")
	}
	if len(repo.saved) != 0 {
		t.Fatalf("failed card must not be persisted, got %v", repo.saved)
	}
}
