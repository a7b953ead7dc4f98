// Package media generates narration audio, stills and short clips through
// HuggingFace inference endpoints.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds each inference request. Video generation is slow.
	DefaultTimeout = 120 * time.Second

	DefaultNegativePrompt = "low quality, blurry, distorted"
	DefaultWidth          = 512
	DefaultHeight         = 512
	DefaultNumFrames      = 24
	DefaultFPS            = 8
	DefaultVoice          = "en_male_deep"

	diaSampleRate = 44100
)

// Endpoints are the inference URLs the bridge calls.
type Endpoints struct {
	Dia       string // Gradio space; /run/predict is appended
	SpeechT5  string
	SDXL      string
	Zeroscope string
}

// DefaultEndpoints returns the public HuggingFace endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Dia:       "https://api-inference.huggingface.co/spaces/nari-labs/Dia-1-6B",
		SpeechT5:  "https://api-inference.huggingface.co/models/microsoft/speecht5_tts",
		SDXL:      "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0",
		Zeroscope: "https://api-inference.huggingface.co/models/cerspense/zeroscope_v2_576w",
	}
}

// Dia voice names keyed by preset.
var diaVoices = map[string]string{
	"en_male_deep":          "Narrator",
	"en_male_confident":     "Confident",
	"en_male_authoritative": "Authoritative",
	"en_male_neutral":       "Neutral",
	"en_female_emotional":   "Emotional",
	"en_female_neutral":     "Neutral Female",
}

// DiaVoice maps a voice preset to its Dia name, defaulting to Narrator.
func DiaVoice(preset string) string {
	if v, ok := diaVoices[preset]; ok {
		return v
	}
	return "Narrator"
}

// Bridge is a HuggingFace inference client. Every failure is logged and
// reported as ("", false).
type Bridge struct {
	token      string
	endpoints  Endpoints
	tempDir    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithEndpoints overrides the inference URLs.
func WithEndpoints(e Endpoints) Option {
	return func(b *Bridge) { b.endpoints = e }
}

// WithTempDir sets where videos without an output path are written.
func WithTempDir(dir string) Option {
	return func(b *Bridge) { b.tempDir = dir }
}

// New returns a Bridge authenticated with token. A zero timeout uses DefaultTimeout.
func New(token string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		token:      token,
		endpoints:  DefaultEndpoints(),
		tempDir:    filepath.Join(os.TempDir(), "nerdscourt-media"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("media"),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Enabled reports whether a token is configured.
func (b *Bridge) Enabled() bool {
	return b != nil && b.token != ""
}

// GenerateAudio speaks text with the given voice preset. Dia is tried first
// and SpeechT5 on any Dia failure. The audio is written to outputPath, or
// returned base64-encoded when outputPath is empty.
func (b *Bridge) GenerateAudio(ctx context.Context, text, voice, outputPath string) (string, bool) {
	if voice == "" {
		voice = DefaultVoice
	}
	data, err := b.diaAudio(ctx, text, voice)
	if err != nil {
		b.logger.Warn("dia failed, falling back to speecht5", zap.Error(err))
		data, err = b.speechT5Audio(ctx, text, voice)
		if err != nil {
			b.logger.Error("generate audio", zap.Error(err))
			return "", false
		}
	}
	return b.deliver(data, outputPath, "audio")
}

func (b *Bridge) diaAudio(ctx context.Context, text, voice string) ([]byte, error) {
	payload := map[string]any{
		"data": []any{
			text,
			DiaVoice(voice),
			1.0,   // temperature
			1.0,   // top p
			1.0,   // typical p
			1.0,   // repetition penalty
			diaSampleRate,
			false, // streaming
			"",    // custom voice
		},
	}
	raw, err := b.post(ctx, b.endpoints.Dia+"/run/predict", payload)
	if err != nil {
		return nil, fmt.Errorf("dia predict: %w", err)
	}

	var result struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("dia decode: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("dia returned no data")
	}
	audioURL, err := fileURL(result.Data[0])
	if err != nil {
		return nil, err
	}
	return b.get(ctx, audioURL)
}

// fileURL accepts either a bare URL string or a Gradio file object.
func fileURL(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, nil
	}
	var f struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &f); err == nil && f.URL != "" {
		return f.URL, nil
	}
	return "", fmt.Errorf("dia returned no audio url")
}

func (b *Bridge) speechT5Audio(ctx context.Context, text, voice string) ([]byte, error) {
	return b.post(ctx, b.endpoints.SpeechT5, map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"voice": voice},
	})
}

// GenerateImage renders prompt with SDXL. Zero sizes default to 512.
func (b *Bridge) GenerateImage(ctx context.Context, prompt, negativePrompt, outputPath string, width, height int) (string, bool) {
	if negativePrompt == "" {
		negativePrompt = DefaultNegativePrompt
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	data, err := b.post(ctx, b.endpoints.SDXL, map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"negative_prompt": negativePrompt,
			"width":           width,
			"height":          height,
		},
	})
	if err != nil {
		b.logger.Error("generate image", zap.Error(err))
		return "", false
	}
	return b.deliver(data, outputPath, "image")
}

// GenerateVideo renders a short clip with zeroscope. Without an output path
// the clip is written to the temp dir as video_{uuid}.mp4.
func (b *Bridge) GenerateVideo(ctx context.Context, prompt, negativePrompt, outputPath string, numFrames, fps int) (string, bool) {
	if negativePrompt == "" {
		negativePrompt = DefaultNegativePrompt
	}
	if numFrames <= 0 {
		numFrames = DefaultNumFrames
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	data, err := b.post(ctx, b.endpoints.Zeroscope, map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"negative_prompt": negativePrompt,
			"num_frames":      numFrames,
			"fps":             fps,
		},
	})
	if err != nil {
		b.logger.Error("generate video", zap.Error(err))
		return "", false
	}
	if outputPath == "" {
		outputPath = filepath.Join(b.tempDir, fmt.Sprintf("video_%s.mp4", uuid.NewString()))
	}
	return b.deliver(data, outputPath, "video")
}

// deliver writes data to path, or base64-encodes it when path is empty.
func (b *Bridge) deliver(data []byte, path, kind string) (string, bool) {
	if path == "" {
		return base64.StdEncoding.EncodeToString(data), true
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		b.logger.Error("create media dir", zap.String("kind", kind), zap.Error(err))
		return "", false
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.logger.Error("write media", zap.String("kind", kind), zap.String("path", path), zap.Error(err))
		return "", false
	}
	b.logger.Debug("media written", zap.String("kind", kind), zap.String("path", path), zap.Int("bytes", len(data)))
	return path, true
}

func (b *Bridge) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.send(req)
}

// get fetches a URL handed back by an endpoint. It may live on any host, so
// the token is not sent.
func (b *Bridge) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return b.send(req)
}

func (b *Bridge) send(req *http.Request) ([]byte, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("huggingface error %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
