// Package agent keeps per-conversation agent sessions and produces replies.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/archive"
	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/router"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// contextBudget is the lore budget, in characters, for a reply's system prompt.
const contextBudget = 1500

// Message is one turn in a conversation thread.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Session is an agent bound to one conversation.
type Session struct {
	AgentID        string
	ConversationID string
	Model          string

	mu       sync.Mutex
	state    map[string]any
	messages []Message
}

// Messages returns a copy of the thread.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// LastUserMessage returns the most recent user turn, or "".
func (s *Session) LastUserMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			return s.messages[i].Content
		}
	}
	return ""
}

func (s *Session) append(m Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return append([]Message(nil), s.messages...)
}

func (s *Session) snapshotState() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.state)+1)
	for k, v := range s.state {
		out[k] = v
	}
	out["model_profile"] = s.Model
	return out
}

// Backend persists threads and agent state. *backend.Client satisfies it.
type Backend interface {
	LoadAgentState(ctx context.Context, agentID, conversationID string) map[string]any
	SaveAgentState(ctx context.Context, agentID string, state any, conversationID string) bool
	LoadThreads(ctx context.Context, conversationID string) map[string]any
	SaveThreads(ctx context.Context, threads any, conversationID string) bool
}

// Responder produces an agent's next reply.
type Responder interface {
	Respond(ctx context.Context, s *Session, system string) (string, error)
}

// EchoResponder is used when no language model is configured.
type EchoResponder struct{}

func (EchoResponder) Respond(_ context.Context, s *Session, _ string) (string, error) {
	return fmt.Sprintf("This is a response from agent %s", s.AgentID), nil
}

// Registry holds live sessions keyed by agent and conversation.
type Registry struct {
	backend   Backend
	responder Responder
	lore      *archive.Archive
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// threads holds every known agent thread per conversation. Convex
	// stores one threads document per conversation, so saves send all of it.
	threads  map[string]map[string]any
}

// NewRegistry returns a Registry. A nil responder falls back to EchoResponder;
// a nil archive disables lore context.
func NewRegistry(backend Backend, responder Responder, lore *archive.Archive, logger *zap.Logger) *Registry {
	if responder == nil {
		responder = EchoResponder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		backend:   backend,
		responder: responder,
		lore:      lore,
		logger:    logger.Named("agent"),
		now:       time.Now,
		sessions:  map[string]*Session{},
		threads:   map[string]map[string]any{},
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Get returns the session for agentID in conversationID, creating it from
// stored state and threads on first use.
func (r *Registry) Get(ctx context.Context, agentID, conversationID string) *Session {
	key := agentID + "_" + conversationID

	r.mu.Lock()
	if s, ok := r.sessions[key]; ok {
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Load outside the lock; the backend may be slow.
	s := &Session{AgentID: agentID, ConversationID: conversationID, state: map[string]any{}}
	var loaded map[string]any
	if r.backend != nil {
		s.state = r.backend.LoadAgentState(ctx, agentID, conversationID)
		loaded = r.backend.LoadThreads(ctx, conversationID)
		s.messages = decodeThread(loaded, agentID)
	}
	s.Model = routeModel(agentID, s.state)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[key]; ok {
		return existing
	}
	r.mergeThreads(conversationID, loaded)
	r.sessions[key] = s
	r.logger.Debug("session created",
		zap.String("agent_id", agentID),
		zap.String("conversation_id", conversationID),
		zap.String("model", s.Model),
		zap.Int("history", len(s.messages)))
	return s
}

// Send appends a user message and returns its id.
func (r *Registry) Send(ctx context.Context, agentID, conversationID, message string) (string, error) {
	if agentID == "" || message == "" {
		return "", fmt.Errorf("agent id and message are required")
	}
	s := r.Get(ctx, agentID, conversationID)
	m := Message{
		ID:        ulid.Make().String(),
		Role:      RoleUser,
		Content:   message,
		CreatedAt: model.Timestamp(r.now()),
	}
	r.saveThread(ctx, s, s.append(m))
	return m.ID, nil
}

// Respond produces and records the agent's reply.
func (r *Registry) Respond(ctx context.Context, agentID, conversationID string) (string, error) {
	if agentID == "" {
		return "", fmt.Errorf("agent id is required")
	}
	s := r.Get(ctx, agentID, conversationID)

	system := ""
	if r.lore != nil {
		system = r.lore.Context(ctx, s.LastUserMessage(), contextBudget).Prompt()
	}

	reply, err := r.responder.Respond(ctx, s, system)
	if err != nil {
		r.logger.Error("respond",
			zap.String("agent_id", agentID),
			zap.String("model", s.Model),
			zap.Error(err))
		return "", err
	}

	thread := s.append(Message{
		ID:        ulid.Make().String(),
		Role:      RoleAssistant,
		Content:   reply,
		CreatedAt: model.Timestamp(r.now()),
	})
	r.saveThread(ctx, s, thread)
	if r.backend != nil {
		r.backend.SaveAgentState(ctx, agentID, s.snapshotState(), conversationID)
	}
	return reply, nil
}

// mergeThreads records stored threads of a conversation. Threads already
// known in memory are newer and win. r.mu must be held.
func (r *Registry) mergeThreads(conversationID string, loaded map[string]any) {
	conv, ok := r.threads[conversationID]
	if !ok {
		conv = map[string]any{}
		r.threads[conversationID] = conv
	}
	for agentID, thread := range loaded {
		if _, ok := conv[agentID]; !ok {
			conv[agentID] = thread
		}
	}
}

func (r *Registry) saveThread(ctx context.Context, s *Session, thread []Message) {
	if r.backend == nil {
		return
	}
	r.mu.Lock()
	r.mergeThreads(s.ConversationID, nil)
	conv := r.threads[s.ConversationID]
	conv[s.AgentID] = thread
	threads := make(map[string]any, len(conv))
	for k, v := range conv {
		threads[k] = v
	}
	r.mu.Unlock()

	if !r.backend.SaveThreads(ctx, threads, s.ConversationID) {
		r.logger.Warn("threads not saved", zap.String("conversation_id", s.ConversationID))
	}
}

// routeModel keeps a stored model profile when it is still a routed model,
// otherwise routes the agent by its stored profile fields.
func routeModel(agentID string, state map[string]any) string {
	if m, ok := state["model_profile"].(string); ok && router.IsKnown(m) {
		return m
	}
	p := model.AgentProfile{Role: agentID}
	if v, ok := state["role"].(string); ok && v != "" {
		p.Role = v
	}
	if v, ok := state["purpose"].(string); ok {
		p.Purpose = v
	}
	if v, ok := state["tone"].(string); ok {
		p.EmotionalSignature.Tone = v
	}
	if traits, ok := state["core_traits"].([]any); ok {
		for _, t := range traits {
			if s, ok := t.(string); ok {
				p.CoreTraits = append(p.CoreTraits, s)
			}
		}
	}
	return router.MatchModel(p)
}

// decodeThread reads the agent's messages out of stored thread data.
func decodeThread(threads map[string]any, agentID string) []Message {
	raw, ok := threads[agentID]
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}
