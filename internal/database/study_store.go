package database

import (
	"context"
	"time"

	"github.com/example/legendas/internal/study"
	"github.com/example/legendas/pkg/models"
)

// StudyStore adapts the repositories to the study.Store interface so the
// study service stays free of SQL.
type StudyStore struct {
	cards    *CardStudyRepository
	phrases  *PhraseRepository
	sessions *StudySessionRepository
}

var _ study.Store = (*StudyStore)(nil)

// NewStudyStore creates the store adapter.
func NewStudyStore() *StudyStore {
	return &StudyStore{
		cards:    NewCardStudyRepository(),
		phrases:  NewPhraseRepository(),
		sessions: NewStudySessionRepository(),
	}
}

func (s *StudyStore) GetCardStudy(ctx context.Context, userID, phraseID int64, direction models.StudyDirection) (*models.CardStudy, error) {
	return s.cards.GetByKey(ctx, userID, phraseID, direction)
}

func (s *StudyStore) FetchDueCardStates(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, now time.Time, limit int) ([]models.CardStudy, error) {
	return s.cards.GetDueForEpisode(ctx, userID, episodeID, direction, now, limit)
}

func (s *StudyStore) FetchUnstudiedPhrases(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, limit int) ([]models.Phrase, error) {
	return s.phrases.GetUnstudied(ctx, userID, episodeID, direction, limit)
}

func (s *StudyStore) FetchPhrasesByScope(ctx context.Context, episodeID int64, limit int) ([]models.Phrase, error) {
	return s.phrases.GetByEpisode(ctx, episodeID, limit)
}

func (s *StudyStore) FetchPhrasesByIDs(ctx context.Context, ids []int64) ([]models.Phrase, error) {
	return s.phrases.GetByIDs(ctx, ids)
}

func (s *StudyStore) UpsertCardStudy(ctx context.Context, study *models.CardStudy) error {
	return s.cards.Upsert(ctx, study)
}

func (s *StudyStore) InsertSession(ctx context.Context, session *models.StudySession) error {
	return s.sessions.Create(ctx, session)
}

func (s *StudyStore) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) (*models.StudySession, error) {
	return s.sessions.Patch(ctx, id, patch)
}

func (s *StudyStore) CountCardStudiesByState(ctx context.Context, userID int64, episodeID *int64, now time.Time) (*models.StudyStats, error) {
	return s.cards.CountByState(ctx, userID, episodeID, now)
}
