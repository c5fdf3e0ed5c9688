package study

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/legendas/internal/fsrs"
	"github.com/example/legendas/pkg/models"
)

var testNow = time.Date(2025, 4, 2, 18, 30, 0, 0, time.UTC)

type cardKey struct {
	user   int64
	phrase int64
	dir    models.StudyDirection
}

// fakeStore is an in-memory Store for tests. It mirrors the SQL
// implementation's filter and ordering semantics.
type fakeStore struct {
	mu       sync.Mutex
	phrases  map[int64]models.Phrase
	cards    map[cardKey]models.CardStudy
	sessions map[string]models.StudySession

	upserts   int
	nextID    int64
	failFetch error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		phrases:  make(map[int64]models.Phrase),
		cards:    make(map[cardKey]models.CardStudy),
		sessions: make(map[string]models.StudySession),
	}
}

func (f *fakeStore) addPhrase(id, episodeID int64, pt, en string) {
	f.phrases[id] = models.Phrase{ID: id, EpisodeID: episodeID, Portuguese: pt, English: en}
}

func (f *fakeStore) putCard(c models.CardStudy) {
	f.cards[cardKey{c.UserID, c.PhraseID, c.Direction}] = c
}

func statePriority(s models.CardState) int {
	switch s {
	case models.StateRelearning:
		return 0
	case models.StateLearning:
		return 1
	case models.StateReview:
		return 2
	default:
		return 3
	}
}

func (f *fakeStore) GetCardStudy(ctx context.Context, userID, phraseID int64, direction models.StudyDirection) (*models.CardStudy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cards[cardKey{userID, phraseID, direction}]; ok {
		out := c
		return &out, nil
	}
	return nil, nil
}

func (f *fakeStore) FetchDueCardStates(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, now time.Time, limit int) ([]models.CardStudy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	var out []models.CardStudy
	for _, c := range f.cards {
		if c.UserID != userID || c.Direction != direction {
			continue
		}
		p, ok := f.phrases[c.PhraseID]
		if !ok || p.EpisodeID != episodeID {
			continue
		}
		if c.State == models.StateNew || !c.Due.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := statePriority(out[i].State), statePriority(out[j].State)
		if pi != pj {
			return pi < pj
		}
		return out[i].Due.Before(out[j].Due)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FetchUnstudiedPhrases(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, limit int) ([]models.Phrase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	var out []models.Phrase
	for _, p := range f.phrases {
		if p.EpisodeID != episodeID {
			continue
		}
		if _, studied := f.cards[cardKey{userID, p.ID, direction}]; studied {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FetchPhrasesByScope(ctx context.Context, episodeID int64, limit int) ([]models.Phrase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	var out []models.Phrase
	for _, p := range f.phrases {
		if p.EpisodeID == episodeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FetchPhrasesByIDs(ctx context.Context, ids []int64) ([]models.Phrase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Phrase
	for _, id := range ids {
		if p, ok := f.phrases[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertCardStudy(ctx context.Context, study *models.CardStudy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := cardKey{study.UserID, study.PhraseID, study.Direction}
	if existing, ok := f.cards[key]; ok {
		study.ID = existing.ID
	} else {
		f.nextID++
		study.ID = f.nextID
	}
	f.cards[key] = *study
	return nil
}

func (f *fakeStore) InsertSession(ctx context.Context, session *models.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = *session
	return nil
}

func (f *fakeStore) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) (*models.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if patch.CardsStudied != nil {
		s.CardsStudied = *patch.CardsStudied
	}
	if patch.CardsCorrect != nil {
		s.CardsCorrect = *patch.CardsCorrect
	}
	if patch.CompletedAt != nil {
		s.CompletedAt = patch.CompletedAt
	}
	if patch.DurationSeconds != nil {
		s.DurationSeconds = *patch.DurationSeconds
	}
	f.sessions[id] = s
	out := s
	return &out, nil
}

func (f *fakeStore) CountCardStudiesByState(ctx context.Context, userID int64, episodeID *int64, now time.Time) (*models.StudyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.StudyStats{}
	for _, c := range f.cards {
		if c.UserID != userID {
			continue
		}
		if episodeID != nil {
			p, ok := f.phrases[c.PhraseID]
			if !ok || p.EpisodeID != *episodeID {
				continue
			}
		}
		switch c.State {
		case models.StateNew:
			stats.NewCards++
		case models.StateLearning:
			stats.LearningCards++
		case models.StateReview:
			stats.ReviewCards++
		case models.StateRelearning:
			stats.RelearningCards++
		}
		stats.TotalReps += c.Reps
		stats.TotalLapses += c.Lapses
		if !c.Due.After(now) {
			stats.DueNow++
		}
	}
	return stats, nil
}

func newTestService(store Store) *Service {
	svc := NewService(store, fsrs.NewDefault(), zap.NewNop().Sugar())
	svc.now = func() time.Time { return testNow }
	return svc
}

// --- GetDueCards ---

func TestGuestDeckFreshScope(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "obrigado", "thank you")
	store.addPhrase(2, 10, "saudade", "longing")
	store.addPhrase(3, 10, "desenrascar", "to improvise a way out")
	svc := newTestService(store)

	cards, err := svc.GetDueCards(context.Background(), GuestUserID, 10, models.DirectionRecognition, 20)
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("got %d cards, want 3", len(cards))
	}
	for _, c := range cards {
		if !c.IsNew || !c.IsDue {
			t.Errorf("phrase %d: IsNew=%v IsDue=%v, want both true", c.Phrase.ID, c.IsNew, c.IsDue)
		}
		if c.Study != nil {
			t.Errorf("phrase %d: guest card carries scheduling state", c.Phrase.ID)
		}
	}
	if store.upserts != 0 {
		t.Errorf("guest deck caused %d writes, want 0", store.upserts)
	}
}

func TestGetDueCardsOrdering(t *testing.T) {
	store := newFakeStore()
	for i := int64(1); i <= 5; i++ {
		store.addPhrase(i, 10, fmt.Sprintf("frase %d", i), fmt.Sprintf("phrase %d", i))
	}
	// Phrase 1: Review, overdue. Phrase 2: Relearning, due.
	// Phrase 3: Learning, due in the future (must not appear).
	// Phrases 4, 5: never studied.
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 1, Direction: models.DirectionRecognition,
		State: models.StateReview, Due: testNow.AddDate(0, 0, -2)})
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 2, Direction: models.DirectionRecognition,
		State: models.StateRelearning, Due: testNow.Add(-time.Hour)})
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 3, Direction: models.DirectionRecognition,
		State: models.StateLearning, Due: testNow.Add(2 * time.Hour)})
	svc := newTestService(store)

	cards, err := svc.GetDueCards(context.Background(), 7, 10, models.DirectionRecognition, 20)
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}

	var order []int64
	for _, c := range cards {
		order = append(order, c.Phrase.ID)
		if c.Phrase.ID == 3 {
			t.Error("future-due learning card returned in deck")
		}
	}
	want := []int64{2, 1, 4, 5} // relearning, review, then new by id
	if len(order) != len(want) {
		t.Fatalf("deck order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("deck order = %v, want %v", order, want)
		}
	}
	if cards[0].IsNew || !cards[0].IsDue {
		t.Errorf("relearning card flags: IsNew=%v IsDue=%v", cards[0].IsNew, cards[0].IsDue)
	}
	if !cards[2].IsNew {
		t.Error("unstudied phrase should be new")
	}
}

func TestGetDueCardsLimit(t *testing.T) {
	store := newFakeStore()
	for i := int64(1); i <= 8; i++ {
		store.addPhrase(i, 10, "pt", "en")
	}
	svc := newTestService(store)

	cards, err := svc.GetDueCards(context.Background(), 7, 10, models.DirectionProduction, 3)
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}
	if len(cards) != 3 {
		t.Errorf("got %d cards, want 3", len(cards))
	}
}

func TestGetDueCardsEmptyScopeIsNotAnError(t *testing.T) {
	svc := newTestService(newFakeStore())
	cards, err := svc.GetDueCards(context.Background(), 7, 99, models.DirectionRecognition, 20)
	if err != nil {
		t.Fatalf("empty scope should not error: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("got %d cards, want 0", len(cards))
	}
}

func TestGetDueCardsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failFetch = errors.New("connection refused")
	svc := newTestService(store)

	if _, err := svc.GetDueCards(context.Background(), 7, 10, models.DirectionRecognition, 20); err == nil {
		t.Error("store failure must surface as an error, not an empty deck")
	}
}

func TestGetDueCardsInvalidDirection(t *testing.T) {
	svc := newTestService(newFakeStore())
	if _, err := svc.GetDueCards(context.Background(), 7, 10, "sideways", 20); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("err = %v, want ErrInvalidDirection", err)
	}
}

// --- ProcessResponse ---

func TestProcessResponseGuestIsolation(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "pt", "en")
	svc := newTestService(store)

	saved, err := svc.ProcessResponse(context.Background(), GuestUserID, 1, models.DirectionRecognition, models.RatingGood, 1200)
	if err != nil {
		t.Fatalf("ProcessResponse: %v", err)
	}
	if saved != nil {
		t.Errorf("guest response returned %+v, want nil", saved)
	}
	if store.upserts != 0 {
		t.Errorf("guest rating caused %d upserts, want 0", store.upserts)
	}
}

func TestProcessResponseFirstRating(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "pt", "en")
	svc := newTestService(store)

	saved, err := svc.ProcessResponse(context.Background(), 7, 1, models.DirectionRecognition, models.RatingGood, 900)
	if err != nil {
		t.Fatalf("ProcessResponse: %v", err)
	}
	if saved == nil {
		t.Fatal("saved card is nil")
	}
	if saved.UserID != 7 || saved.PhraseID != 1 || saved.Direction != models.DirectionRecognition {
		t.Errorf("identity not set: %+v", saved)
	}
	if saved.Reps != 1 || saved.State != models.StateLearning {
		t.Errorf("reps=%d state=%v, want 1/learning", saved.Reps, saved.State)
	}
	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", store.upserts)
	}
}

func TestProcessResponseIdempotentUpsert(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "pt", "en")
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.ProcessResponse(ctx, 7, 1, models.DirectionRecognition, models.RatingGood, 0); err != nil {
		t.Fatalf("first response: %v", err)
	}
	second, err := svc.ProcessResponse(ctx, 7, 1, models.DirectionRecognition, models.RatingAgain, 0)
	if err != nil {
		t.Fatalf("second response: %v", err)
	}

	if len(store.cards) != 1 {
		t.Fatalf("store holds %d rows for the card, want 1", len(store.cards))
	}
	row := store.cards[cardKey{7, 1, models.DirectionRecognition}]
	if row.LastRating != int(models.RatingAgain) || row.Reps != second.Reps {
		t.Errorf("stored row does not reflect the second call: %+v", row)
	}
	if row.Reps != 2 {
		t.Errorf("reps = %d, want 2", row.Reps)
	}
}

func TestProcessResponseInvalidRating(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "pt", "en")
	svc := newTestService(store)

	if _, err := svc.ProcessResponse(context.Background(), 7, 1, models.DirectionRecognition, 9, 0); !errors.Is(err, fsrs.ErrInvalidRating) {
		t.Errorf("err = %v, want ErrInvalidRating", err)
	}
	if store.upserts != 0 {
		t.Errorf("invalid rating caused %d upserts, want 0", store.upserts)
	}
}

// --- Sessions & stats ---

func TestCreateSessionRequiresAuth(t *testing.T) {
	svc := newTestService(newFakeStore())
	if _, err := svc.CreateSession(context.Background(), GuestUserID, 10, 5); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("err = %v, want ErrAuthRequired", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, 7, 10, 5)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == "" || session.CardsStudied != 0 || session.CompletedAt != nil {
		t.Errorf("fresh session malformed: %+v", session)
	}

	studied, correct := 3, 2
	updated, err := svc.UpdateSession(ctx, session.ID, models.SessionPatch{CardsStudied: &studied, CardsCorrect: &correct})
	if err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if updated.CardsStudied != 3 || updated.CardsCorrect != 2 {
		t.Errorf("counters not patched: %+v", updated)
	}

	done := testNow.Add(4 * time.Minute)
	finished, err := svc.UpdateSession(ctx, session.ID, models.SessionPatch{CompletedAt: &done})
	if err != nil {
		t.Fatalf("UpdateSession completion: %v", err)
	}
	if finished.CompletedAt == nil || !finished.CompletedAt.Equal(done) {
		t.Errorf("completion not recorded: %+v", finished)
	}
	// Counters from the earlier patch survive a partial update.
	if finished.CardsStudied != 3 {
		t.Errorf("partial patch clobbered counters: %+v", finished)
	}
}

func TestGetStudyStats(t *testing.T) {
	store := newFakeStore()
	store.addPhrase(1, 10, "pt", "en")
	store.addPhrase(2, 10, "pt", "en")
	store.addPhrase(3, 20, "pt", "en")
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 1, Direction: models.DirectionRecognition,
		State: models.StateReview, Due: testNow.Add(-time.Hour), Reps: 5, Lapses: 1})
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 2, Direction: models.DirectionRecognition,
		State: models.StateLearning, Due: testNow.Add(time.Hour), Reps: 2})
	store.putCard(models.CardStudy{UserID: 7, PhraseID: 3, Direction: models.DirectionRecognition,
		State: models.StateReview, Due: testNow.Add(time.Hour), Reps: 3})
	svc := newTestService(store)

	stats, err := svc.GetStudyStats(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("GetStudyStats: %v", err)
	}
	if stats.ReviewCards != 2 || stats.LearningCards != 1 || stats.TotalReps != 10 || stats.TotalLapses != 1 || stats.DueNow != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	episode := int64(10)
	scoped, err := svc.GetStudyStats(context.Background(), 7, &episode)
	if err != nil {
		t.Fatalf("GetStudyStats scoped: %v", err)
	}
	if scoped.TotalCards() != 2 {
		t.Errorf("scoped total = %d, want 2", scoped.TotalCards())
	}
}
