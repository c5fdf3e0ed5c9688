package study

import (
	"context"
	"time"

	"github.com/example/legendas/pkg/models"
)

// Store is the persistence boundary for the study subsystem. The service
// is agnostic to what sits behind it; internal/database provides the SQL
// implementation and tests use an in-memory fake.
type Store interface {
	// GetCardStudy returns the card state for one (user, phrase, direction)
	// triple, or nil when the card has never been studied.
	GetCardStudy(ctx context.Context, userID, phraseID int64, direction models.StudyDirection) (*models.CardStudy, error)

	// FetchDueCardStates returns card states for the user scoped to the
	// episode and direction where due <= now or state is new, ordered by
	// state priority (relearning > learning > review > new) then earliest
	// due, capped at limit.
	FetchDueCardStates(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, now time.Time, limit int) ([]models.CardStudy, error)

	// FetchUnstudiedPhrases returns phrases in the episode that have no
	// card state yet for the user and direction, capped at limit.
	FetchUnstudiedPhrases(ctx context.Context, userID, episodeID int64, direction models.StudyDirection, limit int) ([]models.Phrase, error)

	// FetchPhrasesByScope returns phrases belonging to the episode, capped
	// at limit, in stable id order.
	FetchPhrasesByScope(ctx context.Context, episodeID int64, limit int) ([]models.Phrase, error)

	// FetchPhrasesByIDs returns the phrases with the given ids.
	FetchPhrasesByIDs(ctx context.Context, ids []int64) ([]models.Phrase, error)

	// UpsertCardStudy writes the card state keyed on
	// (user_id, phrase_id, direction), inserting or replacing.
	UpsertCardStudy(ctx context.Context, study *models.CardStudy) error

	// InsertSession persists a new study session.
	InsertSession(ctx context.Context, session *models.StudySession) error

	// UpdateSession patches an existing session, last write wins, and
	// returns the stored row.
	UpdateSession(ctx context.Context, id string, patch models.SessionPatch) (*models.StudySession, error)

	// CountCardStudiesByState aggregates the user's card studies,
	// optionally restricted to one episode.
	CountCardStudiesByState(ctx context.Context, userID int64, episodeID *int64, now time.Time) (*models.StudyStats, error)
}
