// Package study orchestrates spaced-repetition study: due-card selection,
// rating persistence, session bookkeeping and the interactive game
// controller consumed by the presentation layer.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/legendas/internal/fsrs"
	"github.com/example/legendas/pkg/models"
)

// Sentinel errors. Check with errors.Is.
var (
	ErrAuthRequired     = errors.New("study: authentication required")
	ErrInvalidDirection = errors.New("study: invalid study direction")
	ErrSessionNotFound  = errors.New("study: session not found")
)

// DefaultDeckSize caps a study deck when the caller passes no limit.
const DefaultDeckSize = 20

// GuestUserID marks an unauthenticated caller. Guests get ephemeral decks
// and their ratings are never scheduled or persisted.
const GuestUserID int64 = 0

// Service bridges the scheduler with persisted card state and supplies the
// game controller with ready-to-study decks. Construct with NewService;
// there is deliberately no package-level instance so tests can substitute
// a fake store.
type Service struct {
	store     Store
	scheduler *fsrs.Scheduler
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewService creates a study service on top of the given store and scheduler.
func NewService(store Store, scheduler *fsrs.Scheduler, log *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		log:       log,
		now:       time.Now,
	}
}

// GetDueCards builds the study deck for one episode and direction.
//
// For authenticated users, cards with scheduling state come first (already
// ordered by state priority and due date by the store), then phrases never
// studied in this direction, capped at limit. For guests every phrase in
// the episode becomes a fresh card. An empty deck is a normal result, not
// an error; any error returned here is a store failure.
func (s *Service) GetDueCards(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, limit int) ([]models.StudyCard, error) {
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	if limit <= 0 {
		limit = DefaultDeckSize
	}

	if userID == GuestUserID {
		return s.guestDeck(ctx, episodeID, direction, limit)
	}

	now := s.now()
	states, err := s.store.FetchDueCardStates(ctx, userID, episodeID, direction, now, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due card states: %w", err)
	}

	cards := make([]models.StudyCard, 0, limit)
	if len(states) > 0 {
		ids := make([]int64, len(states))
		for i, st := range states {
			ids[i] = st.PhraseID
		}
		phrases, err := s.store.FetchPhrasesByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch phrases: %w", err)
		}
		byID := make(map[int64]models.Phrase, len(phrases))
		for _, p := range phrases {
			byID[p.ID] = p
		}
		for i := range states {
			st := states[i]
			phrase, ok := byID[st.PhraseID]
			if !ok {
				// Orphaned state row; skip rather than fail the deck.
				s.log.Warnw("card study references missing phrase", "phrase_id", st.PhraseID, "user_id", userID)
				continue
			}
			cards = append(cards, models.StudyCard{
				Phrase:    phrase,
				Study:     &st,
				Direction: direction,
				IsNew:     st.State == models.StateNew,
				IsDue:     !st.Due.After(now),
			})
		}
	}

	// Fill the remainder of the deck with phrases never studied in this
	// direction. New cards always rank after due review material.
	if len(cards) < limit {
		fresh, err := s.store.FetchUnstudiedPhrases(ctx, userID, episodeID, direction, limit-len(cards))
		if err != nil {
			return nil, fmt.Errorf("fetch unstudied phrases: %w", err)
		}
		for _, p := range fresh {
			cards = append(cards, models.StudyCard{
				Phrase:    p,
				Direction: direction,
				IsNew:     true,
				IsDue:     true,
			})
		}
	}

	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

func (s *Service) guestDeck(ctx context.Context, episodeID int64, direction models.StudyDirection, limit int) ([]models.StudyCard, error) {
	phrases, err := s.store.FetchPhrasesByScope(ctx, episodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch phrases for scope %d: %w", episodeID, err)
	}
	cards := make([]models.StudyCard, 0, len(phrases))
	for _, p := range phrases {
		cards = append(cards, models.StudyCard{
			Phrase:    p,
			Direction: direction,
			IsNew:     true,
			IsDue:     true,
		})
	}
	return cards, nil
}

// ProcessResponse records one rating: it loads the existing card state,
// runs the scheduler and upserts the result in a single write. Guests get
// (nil, nil) back and nothing is written. responseTimeMs is advisory and
// currently only logged; the schema has no column for it.
func (s *Service) ProcessResponse(ctx context.Context, userID, phraseID int64, direction models.StudyDirection, rating models.Rating, responseTimeMs int) (*models.CardStudy, error) {
	if userID == GuestUserID {
		s.log.Debugw("discarding guest rating", "phrase_id", phraseID, "rating", rating.String())
		return nil, nil
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	existing, err := s.store.GetCardStudy(ctx, userID, phraseID, direction)
	if err != nil {
		return nil, fmt.Errorf("load card study: %w", err)
	}

	next, err := s.scheduler.Schedule(existing, rating, s.now())
	if err != nil {
		return nil, err
	}
	next.UserID = userID
	next.PhraseID = phraseID
	next.Direction = direction

	if err := s.store.UpsertCardStudy(ctx, &next); err != nil {
		return nil, fmt.Errorf("upsert card study: %w", err)
	}
	s.log.Debugw("card rated",
		"user_id", userID,
		"phrase_id", phraseID,
		"direction", string(direction),
		"rating", rating.String(),
		"state", string(next.State),
		"due", next.Due,
		"response_ms", responseTimeMs,
	)
	return &next, nil
}

// CreateSession opens a new study session with zeroed counters.
func (s *Service) CreateSession(ctx context.Context, userID, episodeID int64, totalCards int) (*models.StudySession, error) {
	if userID == GuestUserID {
		return nil, ErrAuthRequired
	}
	session := &models.StudySession{
		ID:         uuid.NewString(),
		UserID:     userID,
		EpisodeID:  episodeID,
		TotalCards: totalCards,
		StartedAt:  s.now(),
	}
	if err := s.store.InsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// UpdateSession patches counters or the completion timestamp on a session.
// Writes are last-write-wins: a session only ever has one owning game
// controller, so no optimistic locking is applied. A second tab studying
// the same session would race silently; that scenario is out of scope.
func (s *Service) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) (*models.StudySession, error) {
	session, err := s.store.UpdateSession(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	return session, nil
}

// GetStudyStats aggregates the user's card studies by state, with rep and
// lapse totals, optionally scoped to one episode. Read-only.
func (s *Service) GetStudyStats(ctx context.Context, userID int64, episodeID *int64) (*models.StudyStats, error) {
	if userID == GuestUserID {
		return nil, ErrAuthRequired
	}
	stats, err := s.store.CountCardStudiesByState(ctx, userID, episodeID, s.now())
	if err != nil {
		return nil, fmt.Errorf("count card studies: %w", err)
	}
	return stats, nil
}
