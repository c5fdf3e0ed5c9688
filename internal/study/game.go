package study

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/legendas/pkg/models"
)

// GameState is the controller's lifecycle stage.
type GameState int

const (
	GameLoading GameState = iota
	GamePresenting
	GameComplete
	GameError
	GameClosed
)

var gameStateNames = map[GameState]string{
	GameLoading:    "loading",
	GamePresenting: "presenting",
	GameComplete:   "complete",
	GameError:      "error",
	GameClosed:     "closed",
}

func (g GameState) String() string {
	if name, ok := gameStateNames[g]; ok {
		return name
	}
	return "unknown"
}

// Game controller errors.
var (
	ErrRatingInFlight = errors.New("study: a rating is already being persisted")
	ErrAnswerHidden   = errors.New("study: flip the card before rating")
	ErrNotPresenting  = errors.New("study: game is not presenting a card")
	ErrGameClosed     = errors.New("study: game is closed")
)

// Summary is the terminal report of a finished game.
type Summary struct {
	Studied  int           `json:"studied"`
	Correct  int           `json:"correct"`
	Accuracy float64       `json:"accuracy"` // correct/studied, 0 when nothing studied
	Duration time.Duration `json:"duration"`
}

// Game drives a single interactive study session: card sequencing,
// flip/reveal state and rating submission. One Game instance serves one
// learner sitting; ratings are strictly sequential — while a rating's
// persistence is in flight, further ratings are rejected rather than
// queued, which keeps upserts for a card key from racing.
//
// Closing a game mid-flight only stops the controller; an already
// dispatched persistence call finishes in the background and abandoned
// sessions simply keep cards_studied < total_cards. That is an accepted
// limitation, not something a reaper cleans up.
type Game struct {
	svc       *Service
	log       *zap.SugaredLogger
	userID    int64
	episodeID int64
	direction models.StudyDirection
	limit     int

	mu         sync.Mutex
	state      GameState
	deck       []models.StudyCard
	index      int
	showAnswer bool
	inFlight   bool
	session    *models.StudySession
	studied    int
	correct    int
	startedAt  time.Time
	errMsg     string
	retryable  bool
}

// NewGame creates a controller for one study sitting. userID may be
// GuestUserID; guests study without persistence.
func NewGame(svc *Service, log *zap.SugaredLogger, userID, episodeID int64, direction models.StudyDirection, limit int) *Game {
	return &Game{
		svc:       svc,
		log:       log,
		userID:    userID,
		episodeID: episodeID,
		direction: direction,
		limit:     limit,
		state:     GameLoading,
	}
}

// Start loads the deck and, for authenticated users, opens a session.
// On an empty deck the game enters the error state with a non-retryable
// "nothing to study" condition; on a store failure the condition is
// retryable so the UI can offer a manual retry.
func (g *Game) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.state == GameClosed {
		g.mu.Unlock()
		return ErrGameClosed
	}
	if g.inFlight {
		// A pending rating still belongs to the old sitting; reloading now
		// would let its completion mutate the new one.
		g.mu.Unlock()
		return ErrRatingInFlight
	}
	g.state = GameLoading
	g.mu.Unlock()

	deck, err := g.svc.GetDueCards(ctx, g.userID, g.episodeID, g.direction, g.limit)
	if err != nil {
		g.fail("backend unavailable", true)
		return err
	}
	if len(deck) == 0 {
		g.fail("no cards due", false)
		return nil
	}

	var session *models.StudySession
	session, err = g.svc.CreateSession(ctx, g.userID, g.episodeID, len(deck))
	if err != nil {
		if !errors.Is(err, ErrAuthRequired) {
			// A session is bookkeeping; studying still works without one.
			g.log.Warnw("create session failed, continuing without", "error", err)
		}
		session = nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GameClosed {
		return ErrGameClosed
	}
	g.deck = deck
	g.index = 0
	g.showAnswer = false
	g.session = session
	g.studied = 0
	g.correct = 0
	g.startedAt = time.Now()
	g.state = GamePresenting
	return nil
}

// Flip reveals the current card's answer. It has no scheduling side effect.
func (g *Game) Flip() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GamePresenting {
		return ErrNotPresenting
	}
	g.showAnswer = true
	return nil
}

// Rate submits the learner's rating for the current card, persists it and
// advances the deck. Rating the last card completes the game and finalizes
// the session. Persistence failures are logged but never block progress.
func (g *Game) Rate(ctx context.Context, rating models.Rating) error {
	g.mu.Lock()
	if g.state != GamePresenting {
		g.mu.Unlock()
		return ErrNotPresenting
	}
	if !g.showAnswer {
		g.mu.Unlock()
		return ErrAnswerHidden
	}
	if g.inFlight {
		g.mu.Unlock()
		return ErrRatingInFlight
	}
	g.inFlight = true
	card := g.deck[g.index]
	g.mu.Unlock()

	if _, err := g.svc.ProcessResponse(ctx, g.userID, card.Phrase.ID, g.direction, rating, 0); err != nil {
		// Losing one card's scheduling update beats blocking the learner.
		g.log.Warnw("process response failed", "phrase_id", card.Phrase.ID, "error", err)
	}

	g.mu.Lock()
	g.studied++
	if rating.IsCorrect() {
		g.correct++
	}
	studied, correct := g.studied, g.correct
	last := g.index+1 >= len(g.deck)
	session := g.session
	startedAt := g.startedAt
	g.mu.Unlock()

	if session != nil {
		patch := models.SessionPatch{CardsStudied: &studied, CardsCorrect: &correct}
		if last {
			completed := time.Now()
			duration := int(completed.Sub(startedAt).Seconds())
			patch.CompletedAt = &completed
			patch.DurationSeconds = &duration
		}
		if _, err := g.svc.UpdateSession(ctx, session.ID, patch); err != nil {
			g.log.Warnw("update session failed", "session_id", session.ID, "error", err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if g.state == GameClosed {
		return nil
	}
	if last {
		g.state = GameComplete
	} else {
		g.index++
		g.showAnswer = false
	}
	return nil
}

// Restart re-enters loading with fresh counters and a brand-new session;
// the previous session id is never reused. While a rating is still being
// persisted the restart is rejected, the same way a second Rate would be.
func (g *Game) Restart(ctx context.Context) error {
	g.mu.Lock()
	if g.state == GameClosed {
		g.mu.Unlock()
		return ErrGameClosed
	}
	if g.inFlight {
		g.mu.Unlock()
		return ErrRatingInFlight
	}
	g.state = GameLoading
	g.deck = nil
	g.session = nil
	g.studied = 0
	g.correct = 0
	g.index = 0
	g.showAnswer = false
	g.errMsg = ""
	g.retryable = false
	g.mu.Unlock()
	return g.Start(ctx)
}

// Close stops the controller from any state. The session is not finalized
// and no in-flight persistence is cancelled or rolled back.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GameClosed
}

func (g *Game) fail(msg string, retryable bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == GameClosed {
		return
	}
	g.state = GameError
	g.errMsg = msg
	g.retryable = retryable
}

// State returns the controller's current lifecycle stage.
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CurrentCard returns the card being presented, if any.
func (g *Game) CurrentCard() (models.StudyCard, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GamePresenting || g.index >= len(g.deck) {
		return models.StudyCard{}, false
	}
	return g.deck[g.index], true
}

// ShowAnswer reports whether the current card is flipped.
func (g *Game) ShowAnswer() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.showAnswer
}

// Progress returns cards studied so far and the deck size.
func (g *Game) Progress() (studied, total int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.studied, len(g.deck)
}

// Session returns the session opened for this sitting, nil for guests.
func (g *Game) Session() *models.StudySession {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// ErrorInfo returns the error message and whether a retry may help.
// Meaningful only in the error state.
func (g *Game) ErrorInfo() (msg string, retryable bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg, g.retryable
}

// Summary reports the terminal accuracy and wall-clock duration.
func (g *Game) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Summary{Studied: g.studied, Correct: g.correct}
	if g.studied > 0 {
		s.Accuracy = float64(g.correct) / float64(g.studied)
	}
	if !g.startedAt.IsZero() {
		s.Duration = time.Since(g.startedAt)
	}
	return s
}
