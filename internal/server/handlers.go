package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/media"
	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/persona"
	"github.com/nerdscourt/canon-core/internal/store"
	"github.com/nerdscourt/canon-core/internal/trial"
)

const errMissingParams = "Missing required parameters"

// conversationID prefers the body value, then the X-Conversation-Id header,
// then a fresh uuid.
func conversationID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if h := c.GetHeader("X-Conversation-Id"); h != "" {
		return h
	}
	return uuid.NewString()
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errMissingParams})
}

type sendMessageRequest struct {
	AgentID        string `json:"agentId"`
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" || req.Message == "" {
		badRequest(c)
		return
	}
	convID := conversationID(c, req.ConversationID)

	id, err := s.deps.Agents.Send(c.Request.Context(), req.AgentID, convID, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "message_sent",
		"messageId":      id,
		"conversationId": convID,
	})
}

type getResponseRequest struct {
	AgentID        string `json:"agentId"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) getResponse(c *gin.Context) {
	var req getResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" {
		badRequest(c)
		return
	}
	convID := conversationID(c, req.ConversationID)

	reply, err := s.deps.Agents.Respond(c.Request.Context(), req.AgentID, convID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get response"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "response_ready",
		"response":       reply,
		"complete":       true,
		"conversationId": convID,
	})
}

type generateTrialRequest struct {
	Title          string   `json:"title"`
	Plaintiffs     []string `json:"plaintiffs"`
	Defendants     []string `json:"defendants"`
	Charges        []string `json:"charges"`
	Tone           string   `json:"tone"`
	LinkedRecord   string   `json:"linkedRecord"`
	ConversationID string   `json:"conversationId"`
}

func (s *Server) generateTrial(c *gin.Context) {
	var req generateTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Title == "" || len(req.Plaintiffs) == 0 || len(req.Defendants) == 0 || len(req.Charges) == 0 {
		badRequest(c)
		return
	}
	convID := conversationID(c, req.ConversationID)

	record := trial.Synthesize(trial.Params{
		Title:        req.Title,
		Plaintiffs:   req.Plaintiffs,
		Defendants:   req.Defendants,
		Charges:      req.Charges,
		Tone:         req.Tone,
		LinkedRecord: req.LinkedRecord,
	})
	if s.deps.Backend.Enabled() {
		s.deps.Backend.PushTrial(c.Request.Context(), record)
	}
	s.metrics.generated("trial", true)

	c.JSON(http.StatusOK, gin.H{
		"status":         "trial_generated",
		"trialId":        record.CaseID,
		"conversationId": convID,
		"trial":          record,
	})
}

func (s *Server) generatePersona(c *gin.Context) {
	var seed model.PersonaSeed
	if err := c.ShouldBindJSON(&seed); err != nil {
		badRequest(c)
		return
	}
	p := persona.Synthesize(seed)
	if s.deps.Backend.Enabled() {
		s.deps.Backend.PushPersona(c.Request.Context(), p)
	}
	s.metrics.generated("persona", true)

	c.JSON(http.StatusOK, gin.H{
		"status":  "persona_generated",
		"persona": p,
	})
}

type queryRequest struct {
	Query     string `json:"query"`
	Character string `json:"character"`
	Theme     string `json:"theme"`
}

func (s *Server) queryNerdBible(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		badRequest(c)
		return
	}

	preds := []store.Predicate{store.Matching(req.Query)}
	if req.Character != "" {
		preds = append(preds, store.CharacterIs(req.Character))
	}
	if req.Theme != "" {
		preds = append(preds, store.ThemeIs(req.Theme))
	}
	entries := s.deps.Archive.Filter(c.Request.Context(), store.All(preds...))

	c.JSON(http.StatusOK, gin.H{
		"status":  "entries_found",
		"entries": entries,
		"count":   len(entries),
	})
}

type audioRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (s *Server) generateAudio(c *gin.Context) {
	var req audioRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		badRequest(c)
		return
	}
	if req.Voice == "" {
		req.Voice = media.DefaultVoice
	}

	filename := fmt.Sprintf("audio_%s.mp3", uuid.NewString())
	_, ok := s.deps.Media.GenerateAudio(c.Request.Context(), req.Text, req.Voice, filepath.Join(s.mediaDir, filename))
	s.metrics.generated("audio", ok)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate audio"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "audio_generated",
		"audioUrl": "/media/" + filename,
		"text":     req.Text,
		"voice":    req.Voice,
	})
}

type imageRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

func (s *Server) generateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		badRequest(c)
		return
	}

	filename := fmt.Sprintf("image_%s.jpg", uuid.NewString())
	_, ok := s.deps.Media.GenerateImage(c.Request.Context(), req.Prompt, req.NegativePrompt,
		filepath.Join(s.mediaDir, filename), req.Width, req.Height)
	s.metrics.generated("image", ok)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "image_generated",
		"imageUrl": "/media/" + filename,
		"prompt":   req.Prompt,
	})
}

type videoRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	NumFrames      int    `json:"numFrames"`
	FPS            int    `json:"fps"`
}

func (s *Server) generateVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		badRequest(c)
		return
	}

	filename := fmt.Sprintf("video_%s.mp4", uuid.NewString())
	_, ok := s.deps.Media.GenerateVideo(c.Request.Context(), req.Prompt, req.NegativePrompt,
		filepath.Join(s.mediaDir, filename), req.NumFrames, req.FPS)
	s.metrics.generated("video", ok)
	if !ok {
		s.logger.Warn("video generation failed", zap.String("prompt", req.Prompt))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate video"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "video_generated",
		"videoUrl": "/media/" + filename,
		"prompt":   req.Prompt,
	})
}
