package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/legendas/internal/subtitle"
	"github.com/example/legendas/pkg/models"
)

const maxUploadBytes = 4 << 20

func (s *Server) listShows(c *gin.Context) {
	shows, err := s.shows.GetAll(c.Request.Context())
	if err != nil {
		s.log.Errorw("failed to list shows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shows"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shows": shows})
}

func (s *Server) createShow(c *gin.Context) {
	var show models.Show
	if err := c.ShouldBindJSON(&show); err != nil || show.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if err := s.shows.Create(c.Request.Context(), &show); err != nil {
		s.log.Errorw("failed to create show", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create show"})
		return
	}
	c.JSON(http.StatusCreated, show)
}

func (s *Server) updateShow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var show models.Show
	if err := c.ShouldBindJSON(&show); err != nil || show.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	show.ID = id
	if err := s.shows.Update(c.Request.Context(), &show); err != nil {
		s.log.Errorw("failed to update show", "show_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update show"})
		return
	}
	c.JSON(http.StatusOK, show)
}

func (s *Server) deleteShow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.shows.Delete(c.Request.Context(), id); err != nil {
		s.log.Errorw("failed to delete show", "show_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete show"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listEpisodes(c *gin.Context) {
	showID, ok := pathID(c)
	if !ok {
		return
	}
	episodes, err := s.episodes.GetByShow(c.Request.Context(), showID)
	if err != nil {
		s.log.Errorw("failed to list episodes", "show_id", showID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list episodes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": episodes})
}

func (s *Server) getEpisode(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	episode, err := s.episodes.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "episode not found"})
		return
	}
	c.JSON(http.StatusOK, episode)
}

func (s *Server) createEpisode(c *gin.Context) {
	var episode models.Episode
	if err := c.ShouldBindJSON(&episode); err != nil || episode.ShowID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id is required"})
		return
	}
	if err := s.episodes.Create(c.Request.Context(), &episode); err != nil {
		s.log.Errorw("failed to create episode", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create episode"})
		return
	}
	c.JSON(http.StatusCreated, episode)
}

func (s *Server) updateEpisode(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var episode models.Episode
	if err := c.ShouldBindJSON(&episode); err != nil || episode.ShowID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id is required"})
		return
	}
	episode.ID = id
	if err := s.episodes.Update(c.Request.Context(), &episode); err != nil {
		s.log.Errorw("failed to update episode", "episode_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update episode"})
		return
	}
	c.JSON(http.StatusOK, episode)
}

func (s *Server) deleteEpisode(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.episodes.Delete(c.Request.Context(), id); err != nil {
		s.log.Errorw("failed to delete episode", "episode_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete episode"})
		return
	}
	c.Status(http.StatusNoContent)
}

// uploadSubtitles accepts an SRT or WebVTT file for an episode, parses it
// and runs phrase extraction synchronously. The response carries the
// finished extraction record.
func (s *Server) uploadSubtitles(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := s.episodes.GetByID(c.Request.Context(), episodeID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "episode not found"})
		return
	}

	data, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.runExtraction(c, episodeID, data)
}

// scrapeSubtitles finds the subtitle track on the episode's source page,
// downloads it and runs phrase extraction.
func (s *Server) scrapeSubtitles(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	episode, err := s.episodes.GetByID(c.Request.Context(), episodeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "episode not found"})
		return
	}
	if episode.SourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episode has no source URL"})
		return
	}

	ctx := c.Request.Context()
	trackURL, err := s.scraper.FindSubtitleURL(ctx, episode.SourceURL)
	if err != nil {
		s.log.Warnw("subtitle scrape failed", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("scrape failed: %v", err)})
		return
	}
	data, err := s.scraper.Download(ctx, trackURL)
	if err != nil {
		s.log.Warnw("subtitle download failed", "episode_id", episodeID, "url", trackURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("download failed: %v", err)})
		return
	}

	s.runExtraction(c, episodeID, data)
}

// runExtraction parses the subtitle data, creates an extraction record and
// stores the phrases the model returns. Failures are recorded on the
// extraction before being reported.
func (s *Server) runExtraction(c *gin.Context, episodeID int64, data []byte) {
	if s.extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "phrase extraction is not configured"})
		return
	}

	cues, _, err := subtitle.Parse(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid subtitle file: %v", err)})
		return
	}

	ctx := c.Request.Context()
	extraction := &models.Extraction{EpisodeID: episodeID}
	if err := s.extractions.Create(ctx, extraction); err != nil {
		s.log.Errorw("failed to create extraction", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start extraction"})
		return
	}

	extracted, model, err := s.extractor.ExtractPhrases(ctx, subtitle.PlainText(cues))
	if err != nil {
		s.log.Errorw("phrase extraction failed", "extraction_id", extraction.ID, "error", err)
		if markErr := s.extractions.MarkFailed(ctx, extraction.ID, err.Error()); markErr != nil {
			s.log.Errorw("failed to mark extraction failed", "extraction_id", extraction.ID, "error", markErr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "phrase extraction failed", "extraction_id": extraction.ID})
		return
	}

	stored := 0
	for _, ep := range extracted {
		phrase := &models.Phrase{
			ExtractionID: extraction.ID,
			EpisodeID:    episodeID,
			Portuguese:   ep.Portuguese,
			English:      ep.English,
			Context:      ep.Context,
		}
		// Tie the phrase back to its position in the track when the cue
		// can be found by its text.
		for _, cue := range cues {
			if cue.Text == ep.Context {
				phrase.StartMs = cue.StartMs
				phrase.EndMs = cue.EndMs
				break
			}
		}
		if err := s.phrases.Create(ctx, phrase); err != nil {
			s.log.Errorw("failed to store phrase", "extraction_id", extraction.ID, "error", err)
			continue
		}
		stored++
	}

	if err := s.extractions.MarkCompleted(ctx, extraction.ID, model, stored); err != nil {
		s.log.Errorw("failed to mark extraction completed", "extraction_id", extraction.ID, "error", err)
	}
	c.JSON(http.StatusCreated, gin.H{
		"extraction_id": extraction.ID,
		"model":         model,
		"phrase_count":  stored,
		"cue_count":     len(cues),
	})
}

func readUpload(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxUploadBytes {
			return nil, fmt.Errorf("file too large")
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxUploadBytes))
	}
	// Fall back to a raw body upload.
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("no subtitle file in request")
	}
	return data, nil
}

func (s *Server) listExtractions(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	extractions, err := s.extractions.GetByEpisode(c.Request.Context(), episodeID)
	if err != nil {
		s.log.Errorw("failed to list extractions", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list extractions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"extractions": extractions})
}

func (s *Server) listPhrases(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	phrases, err := s.phrases.GetByEpisode(c.Request.Context(), episodeID, limit)
	if err != nil {
		s.log.Errorw("failed to list phrases", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list phrases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"phrases": phrases})
}

func (s *Server) deletePhrase(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.phrases.Delete(c.Request.Context(), id); err != nil {
		s.log.Errorw("failed to delete phrase", "phrase_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete phrase"})
		return
	}
	c.Status(http.StatusNoContent)
}

// exportPhrases streams an episode's phrases as CSV or XLSX.
func (s *Server) exportPhrases(c *gin.Context) {
	episodeID, ok := pathID(c)
	if !ok {
		return
	}
	phrases, err := s.phrases.GetByEpisode(c.Request.Context(), episodeID, 10000)
	if err != nil {
		s.log.Errorw("failed to load phrases for export", "episode_id", episodeID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export phrases"})
		return
	}

	filename := fmt.Sprintf("episode-%d-phrases", episodeID)
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := subtitle.WritePhrasesXLSX(c.Writer, phrases); err != nil {
			s.log.Errorw("failed to write XLSX export", "episode_id", episodeID, "error", err)
		}
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := subtitle.WritePhrasesCSV(c.Writer, phrases); err != nil {
			s.log.Errorw("failed to write CSV export", "episode_id", episodeID, "error", err)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}
