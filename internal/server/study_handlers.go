package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/legendas/internal/fsrs"
	"github.com/example/legendas/internal/study"
	"github.com/example/legendas/pkg/models"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) getDueCards(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	direction := models.StudyDirection(c.DefaultQuery("direction", string(models.DirectionRecognition)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	cards, err := s.study.GetDueCards(c.Request.Context(), callerID(c), episodeID, direction, limit)
	if err != nil {
		if errors.Is(err, study.ErrInvalidDirection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
			return
		}
		s.log.Errorw("failed to build study deck", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cards"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "count": len(cards)})
}

func (s *Server) postResponse(c *gin.Context) {
	var req struct {
		PhraseID       int64                 `json:"phrase_id" binding:"required"`
		Direction      models.StudyDirection `json:"direction" binding:"required"`
		Rating         int                   `json:"rating" binding:"required"`
		ResponseTimeMs int                   `json:"response_time_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	updated, err := s.study.ProcessResponse(c.Request.Context(), callerID(c),
		req.PhraseID, req.Direction, models.Rating(req.Rating), req.ResponseTimeMs)
	if err != nil {
		switch {
		case errors.Is(err, fsrs.ErrInvalidRating), errors.Is(err, study.ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.log.Errorw("failed to process response", "phrase_id", req.PhraseID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record response"})
		}
		return
	}
	if updated == nil {
		// Guest rating: acknowledged but not persisted.
		c.JSON(http.StatusOK, gin.H{"persisted": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"persisted": true, "card": updated})
}

func (s *Server) createSession(c *gin.Context) {
	var req struct {
		EpisodeID  int64 `json:"episode_id" binding:"required"`
		TotalCards int   `json:"total_cards"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	session, err := s.study.CreateSession(c.Request.Context(), callerID(c), req.EpisodeID, req.TotalCards)
	if err != nil {
		if errors.Is(err, study.ErrAuthRequired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		s.log.Errorw("failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (s *Server) updateSession(c *gin.Context) {
	id := c.Param("id")
	owned, ok := s.ownedSession(c, id)
	if !ok {
		return
	}

	var req struct {
		CardsStudied    *int  `json:"cards_studied"`
		CardsCorrect    *int  `json:"cards_correct"`
		DurationSeconds *int  `json:"duration_seconds"`
		Completed       *bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	patch := models.SessionPatch{
		CardsStudied:    req.CardsStudied,
		CardsCorrect:    req.CardsCorrect,
		DurationSeconds: req.DurationSeconds,
	}
	if req.Completed != nil && *req.Completed && owned.CompletedAt == nil {
		now := time.Now()
		patch.CompletedAt = &now
	}

	session, err := s.study.UpdateSession(c.Request.Context(), id, patch)
	if err != nil {
		s.log.Errorw("failed to update session", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) getSession(c *gin.Context) {
	session, ok := s.ownedSession(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

// ownedSession loads a session and checks it belongs to the caller.
func (s *Server) ownedSession(c *gin.Context, id string) (*models.StudySession, bool) {
	userID := callerID(c)
	if userID == study.GuestUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	session, err := s.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	if session.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return nil, false
	}
	return session, true
}

func (s *Server) listSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sessions, err := s.sessions.GetByUser(c.Request.Context(), callerID(c), limit)
	if err != nil {
		s.log.Errorw("failed to list sessions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) getStats(c *gin.Context) {
	var episodeID *int64
	if raw := c.Query("episode_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode_id"})
			return
		}
		episodeID = &id
	}

	stats, err := s.study.GetStudyStats(c.Request.Context(), callerID(c), episodeID)
	if err != nil {
		if errors.Is(err, study.ErrAuthRequired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		s.log.Errorw("failed to load stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
