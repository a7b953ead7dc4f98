package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/archive"
	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/router"
	"github.com/nerdscourt/canon-core/internal/store"
)

type fakeBackend struct {
	mu          sync.Mutex
	state       map[string]any
	threads     map[string]any
	savedThread []any
	savedState  []any
	stateLoads  int
}

func (f *fakeBackend) LoadAgentState(_ context.Context, _, _ string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateLoads++
	if f.state == nil {
		return map[string]any{}
	}
	return f.state
}

func (f *fakeBackend) SaveAgentState(_ context.Context, _ string, state any, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedState = append(f.savedState, state)
	return true
}

func (f *fakeBackend) LoadThreads(context.Context, string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]any{}
	for k, v := range f.threads {
		out[k] = v
	}
	return out
}

// SaveThreads replaces the conversation's threads document, as Convex does.
func (f *fakeBackend) SaveThreads(_ context.Context, threads any, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedThread = append(f.savedThread, threads)
	f.threads = threads.(map[string]any)
	return true
}

// captureResponder records what it was asked.
type captureResponder struct {
	system string
	seen   []Message
	err    error
}

func (c *captureResponder) Respond(_ context.Context, s *Session, system string) (string, error) {
	c.system = system
	c.seen = s.Messages()
	if c.err != nil {
		return "", c.err
	}
	return "The court acknowledges.", nil
}

func TestGetCreatesOnce(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRegistry(fb, nil, nil, zap.NewNop())
	ctx := context.Background()

	a := r.Get(ctx, "judge", "conv-1")
	b := r.Get(ctx, "judge", "conv-1")
	c := r.Get(ctx, "judge", "conv-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, fb.stateLoads)
}

func TestGetRoutesModel(t *testing.T) {
	ctx := context.Background()

	r := NewRegistry(&fakeBackend{state: map[string]any{"tone": "trauma-bonded"}}, nil, nil, nil)
	assert.Equal(t, router.ModelResonance, r.Get(ctx, "echo", "c").Model)

	r = NewRegistry(&fakeBackend{state: map[string]any{"model_profile": router.ModelQuirky}}, nil, nil, nil)
	assert.Equal(t, router.ModelQuirky, r.Get(ctx, "echo", "c").Model)

	r = NewRegistry(&fakeBackend{state: map[string]any{"model_profile": "made:up", "core_traits": []any{"chaos"}}}, nil, nil, nil)
	assert.Equal(t, router.ModelQuirky, r.Get(ctx, "echo", "c").Model)

	r = NewRegistry(nil, nil, nil, nil)
	assert.Equal(t, router.ModelRational, r.Get(ctx, "narrator", "c").Model)
}

func TestGetRestoresThread(t *testing.T) {
	fb := &fakeBackend{threads: map[string]any{
		"judge": []any{map[string]any{"id": "m1", "role": "user", "content": "Hello", "created_at": "x"}},
		"other": []any{map[string]any{"id": "m2", "role": "user", "content": "Nope"}},
	}}
	r := NewRegistry(fb, nil, nil, nil)

	s := r.Get(context.Background(), "judge", "conv")
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "Hello", s.LastUserMessage())
}

func TestSendAndEchoRespond(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRegistry(fb, nil, nil, zap.NewNop())
	ctx := context.Background()

	id, err := r.Send(ctx, "judge", "conv-1", "Is the defendant present?")
	require.NoError(t, err)
	_, err = ulid.Parse(id)
	assert.NoError(t, err, "message id should be a ULID")

	reply, err := r.Respond(ctx, "judge", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "This is a response from agent judge", reply)

	msgs := r.Get(ctx, "judge", "conv-1").Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)

	require.Len(t, fb.savedThread, 2)
	last := fb.savedThread[1].(map[string]any)["judge"].([]Message)
	assert.Len(t, last, 2)
	require.Len(t, fb.savedState, 1)
	assert.Equal(t, router.ModelFallback, fb.savedState[0].(map[string]any)["model_profile"])
}

func TestSharedConversationKeepsEveryThread(t *testing.T) {
	ctx := context.Background()
	fb := &fakeBackend{}
	r := NewRegistry(fb, nil, nil, nil)

	_, err := r.Send(ctx, "judge", "conv-x", "Order!")
	require.NoError(t, err)
	_, err = r.Send(ctx, "defense", "conv-x", "Objection!")
	require.NoError(t, err)

	last := fb.savedThread[len(fb.savedThread)-1].(map[string]any)
	assert.Contains(t, last, "judge")
	assert.Contains(t, last, "defense")

	fresh := NewRegistry(fb, nil, nil, nil)
	judge := fresh.Get(ctx, "judge", "conv-x").Messages()
	require.Len(t, judge, 1)
	assert.Equal(t, "Order!", judge[0].Content)
	defense := fresh.Get(ctx, "defense", "conv-x").Messages()
	require.Len(t, defense, 1)
	assert.Equal(t, "Objection!", defense[0].Content)

	// A restored registry must not drop the other agent on its next save.
	_, err = fresh.Send(ctx, "judge", "conv-x", "Sustained.")
	require.NoError(t, err)
	restored := NewRegistry(fb, nil, nil, nil)
	assert.Len(t, restored.Get(ctx, "judge", "conv-x").Messages(), 2)
	assert.Len(t, restored.Get(ctx, "defense", "conv-x").Messages(), 1)
}

func TestSendValidation(t *testing.T) {
	r := NewRegistry(nil, nil, nil, nil)
	_, err := r.Send(context.Background(), "", "c", "hi")
	assert.Error(t, err)
	_, err = r.Send(context.Background(), "a", "c", "")
	assert.Error(t, err)
	_, err = r.Respond(context.Background(), "", "c")
	assert.Error(t, err)
}

func TestRespondInjectsLore(t *testing.T) {
	ctx := context.Background()
	lore := archive.New(store.NewFileStore(filepath.Join(t.TempDir(), "bible.json")), zap.NewNop())
	_, err := lore.CreateEntry(ctx, "loyalty", "I stayed.", "Trial of Echoes", "Springer", model.TierGoldenFrame)
	require.NoError(t, err)

	resp := &captureResponder{}
	r := NewRegistry(nil, resp, lore, nil)
	_, err = r.Send(ctx, "springer", "c", "tell me about loyalty")
	require.NoError(t, err)

	reply, err := r.Respond(ctx, "springer", "c")
	require.NoError(t, err)
	assert.Equal(t, "The court acknowledges.", reply)
	assert.Contains(t, resp.system, `"I stayed." (Springer, Trial of Echoes)`)
	require.Len(t, resp.seen, 1)
}

func TestRespondError(t *testing.T) {
	resp := &captureResponder{err: errors.New("upstream down")}
	r := NewRegistry(nil, resp, nil, nil)

	_, err := r.Respond(context.Background(), "judge", "c")
	assert.Error(t, err)
	assert.Empty(t, r.Get(context.Background(), "judge", "c").Messages())
}

func TestOpenAIResponder(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Objection sustained."},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	r := NewRegistry(&fakeBackend{state: map[string]any{"purpose": "justice"}}, NewOpenAIResponder("llm-key", srv.URL+"/v1"), nil, nil)
	_, err := r.Send(ctx, "judge", "c", "Objection!")
	require.NoError(t, err)

	reply, err := r.Respond(ctx, "judge", "c")
	require.NoError(t, err)
	assert.Equal(t, "Objection sustained.", reply)
	assert.Equal(t, "Bearer llm-key", auth)
	assert.Equal(t, "together-gemma-7b-it", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Objection!", got.Messages[0].Content)
}

func TestOpenAIResponderModelNames(t *testing.T) {
	routed := NewOpenAIResponder("k", "")
	for _, id := range router.Models() {
		slug := routed.modelName(id)
		assert.Contains(t, slug, "/", id)
		assert.NotContains(t, slug, ":", id)
	}
	assert.Equal(t, "google/gemma-7b-it", routed.modelName(router.ModelRational))
	assert.Equal(t, "custom-model", routed.modelName("custom-model"))

	local := NewOpenAIResponder("k", "http://localhost:11434/v1")
	assert.Equal(t, "deepseek-coder", local.modelName(router.ModelQuirky))
}

func TestOpenAIResponderEmptyThread(t *testing.T) {
	o := NewOpenAIResponder("k", "http://127.0.0.1:0")
	_, err := o.Respond(context.Background(), &Session{AgentID: "a", Model: router.ModelFallback}, "")
	assert.Error(t, err)
}
