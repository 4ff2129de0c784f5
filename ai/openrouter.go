package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Mode selects which OpenRouter models serve requests.
type Mode string

const (
	ModeTest    Mode = "test"
	ModeServing Mode = "serving"
)

// ErrUnavailable is returned when the oracle cannot be used because no API key
// is configured. Callers decide whether that is fatal for their operation.
var ErrUnavailable = errors.New("oracle unavailable: OPENROUTER_API_KEY is not set")

// Client talks to the OpenRouter chat completions API.
type Client struct {
	APIKey      string
	BaseURL     string
	Referer     string
	Title       string
	Mode        Mode
	TextModel   string
	VisionModel string
	HTTPClient  *http.Client
}

// NewClientFromEnv builds the oracle client. The client is always usable as a
// value; Available reports whether calls can actually be made.
func NewClientFromEnv() *Client {
	mode := ModeTest
	if os.Getenv("FORGOOD_MODE") == string(ModeServing) {
		mode = ModeServing
	}

	text := os.Getenv("OPENROUTER_MODEL")
	vision := os.Getenv("OPENROUTER_MODEL_VISION")
	if mode == ModeTest {
		text = os.Getenv("OPENROUTER_MODEL_TEST")
		vision = os.Getenv("OPENROUTER_MODEL_VISION_TEST")
		if text == "" {
			text = "openrouter/auto"
		}
		if vision == "" {
			vision = "openrouter/auto"
		}
	} else {
		if text == "" {
			text = "moonshotai/kimi-k2.5"
		}
		if vision == "" {
			vision = "moonshotai/kimi-k2.5"
		}
	}

	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	referer := os.Getenv("OPENROUTER_REFERER")
	if referer == "" {
		referer = "http://localhost"
	}
	title := os.Getenv("OPENROUTER_TITLE")
	if title == "" {
		title = "FORGOOD"
	}

	return &Client{
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Referer:     referer,
		Title:       title,
		Mode:        mode,
		TextModel:   text,
		VisionModel: vision,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Available reports whether the OpenRouter API key is configured.
func (c *Client) Available() bool {
	return c != nil && c.APIKey != ""
}

// ActiveModels exposes the current mode and model mapping for health checks.
func (c *Client) ActiveModels() (mode, text, vision string) {
	return string(c.Mode), c.TextModel, c.VisionModel
}

// ─── Chat plumbing ──────────────────────────────────────────

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) chat(ctx context.Context, model string, messages []chatMessage) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":           model,
		"messages":        messages,
		"temperature":     0.3,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.Referer)
	req.Header.Set("X-Title", c.Title)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode openrouter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("openrouter returned status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("openrouter response missing content")
	}

	latency := time.Since(start).Milliseconds()
	if parsed.Usage != nil {
		log.Printf("[OpenRouter] mode=%s model=%s tokens_in=%d tokens_out=%d latency=%dms",
			c.Mode, model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, latency)
	} else {
		log.Printf("[OpenRouter] mode=%s model=%s latency=%dms (no usage data)", c.Mode, model, latency)
	}

	return parsed.Choices[0].Message.Content, nil
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSON pulls a JSON object out of a model response that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(content string) ([]byte, error) {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}
	if m := codeFenceRe.FindStringSubmatch(content); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		candidate := content[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	snippet := content
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return nil, fmt.Errorf("no valid JSON found in response: %s", snippet)
}

// ─── Result types ───────────────────────────────────────────

// MissionSummary is the oracle's view of a mission.
type MissionSummary struct {
	Title       string
	Description string
	Category    string
	Location    string
}

// String renders the summary as prompt-ready plain text.
func (m MissionSummary) String() string {
	loc := m.Location
	if loc == "" {
		loc = "Not specified"
	}
	return strings.Join([]string{
		"Mission: " + m.Title,
		"Description: " + m.Description,
		"Category: " + m.Category,
		"Location: " + loc,
	}, "\n")
}

// Evaluation is a difficulty/impact judgment for a proposed mission.
type Evaluation struct {
	Difficulty int      `json:"difficulty"`
	Impact     int      `json:"impact"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
	RewardWei  *big.Int `json:"-"`
}

// Verification is a raw proof judgment before the verdict policy is applied.
type Verification struct {
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// DiscriminatorResult reports whether a proof looks AI-generated.
type DiscriminatorResult struct {
	IsGenerated bool     `json:"isAiGenerated"`
	Confidence  float64  `json:"confidence"`
	Reasons     []string `json:"reasons"`
}

// ScreeningResult is the social-good gate applied before a mission is stored.
type ScreeningResult struct {
	Approved   bool    `json:"approved"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// MissionIdea is an agent-generated mission proposal.
type MissionIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// ─── Public operations ──────────────────────────────────────

// EvaluateMission scores a proposal. Failure aborts the evaluate transition.
func (c *Client) EvaluateMission(ctx context.Context, m MissionSummary) (*Evaluation, error) {
	userPrompt := "Evaluate this public-good mission proposal:\n" + m.String() + "\n\nReturn JSON only."

	content, err := c.chat(ctx, c.TextModel, []chatMessage{
		{Role: "system", Content: evaluationSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	return parseEvaluation(raw)
}

type evaluationPayload struct {
	Difficulty float64         `json:"difficulty"`
	Impact     float64         `json:"impact"`
	Confidence float64         `json:"confidence"`
	Rationale  string          `json:"rationale"`
	Reward     json.RawMessage `json:"reward"`
}

func parseEvaluation(raw []byte) (*Evaluation, error) {
	var p evaluationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid evaluation JSON: %w", err)
	}
	if p.Difficulty < 1 || p.Difficulty > 10 || p.Impact < 1 || p.Impact > 10 {
		return nil, fmt.Errorf("evaluation out of range: difficulty=%v impact=%v", p.Difficulty, p.Impact)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, fmt.Errorf("evaluation confidence out of range: %v", p.Confidence)
	}

	eval := &Evaluation{
		Difficulty: int(p.Difficulty + 0.5),
		Impact:     int(p.Impact + 0.5),
		Confidence: p.Confidence,
		Rationale:  p.Rationale,
	}

	// Reward may come back as a wei string or a bare number.
	if len(p.Reward) > 0 {
		var s string
		if err := json.Unmarshal(p.Reward, &s); err == nil {
			wei, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, fmt.Errorf("invalid reward wei string %q", s)
			}
			eval.RewardWei = wei
		} else {
			var n float64
			if err := json.Unmarshal(p.Reward, &n); err != nil {
				return nil, fmt.Errorf("invalid reward value %s", p.Reward)
			}
			eval.RewardWei = new(big.Int).SetInt64(int64(n))
		}
	}
	return eval, nil
}

// VerifyProof judges a proof image against the mission summary. The returned
// verdict is raw; the caller applies the confidence policy.
func (c *Client) VerifyProof(ctx context.Context, missionSummary, proofURL string) (*Verification, error) {
	content, err := c.chat(ctx, c.VisionModel, []chatMessage{
		{Role: "system", Content: proofSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Verify this proof:\n\n" + missionSummary + "\n\nReturn JSON only."},
			{Type: "image_url", ImageURL: &imageURL{URL: proofURL}},
		}},
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var v Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid verification JSON: %w", err)
	}
	if v.Verdict == "" || len(v.Evidence) == 0 {
		return nil, errors.New("verification response missing verdict or evidence")
	}
	return &v, nil
}

// DetectGenerated runs the AI-generated-content discriminator over a proof.
// Errors are non-fatal: the caller proceeds to the main verifier unscreened.
func (c *Client) DetectGenerated(ctx context.Context, proofURL string) (*DiscriminatorResult, error) {
	content, err := c.chat(ctx, c.VisionModel, []chatMessage{
		{Role: "system", Content: discriminatorSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Analyse this uploaded proof. Is it AI-generated? Return JSON only."},
			{Type: "image_url", ImageURL: &imageURL{URL: proofURL}},
		}},
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var d DiscriminatorResult
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("invalid discriminator JSON: %w", err)
	}
	return &d, nil
}

// ScreenProposal checks a proposal for genuine social good. Errors are
// non-fatal: the caller allows the mission through unscreened.
func (c *Client) ScreenProposal(ctx context.Context, m MissionSummary) (*ScreeningResult, error) {
	userPrompt := "Screen this mission proposal for social good:\n" +
		"Title: " + m.Title + "\n" +
		"Description: " + m.Description + "\n" +
		"Category: " + m.Category + "\n\nReturn JSON only."

	content, err := c.chat(ctx, c.TextModel, []chatMessage{
		{Role: "system", Content: screeningSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var s ScreeningResult
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid screening JSON: %w", err)
	}
	if s.Reason == "" {
		s.Reason = "No reason provided"
	}
	return &s, nil
}

// GenerateMissionIdea asks the agent for a new public-good mission.
func (c *Client) GenerateMissionIdea(ctx context.Context) (*MissionIdea, error) {
	content, err := c.chat(ctx, c.TextModel, []chatMessage{
		{Role: "system", Content: missionIdeaSystemPrompt},
		{Role: "user", Content: "Generate a unique public-good mission. Be creative. Return JSON only."},
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}
	var idea MissionIdea
	if err := json.Unmarshal(raw, &idea); err != nil {
		return nil, fmt.Errorf("invalid mission idea JSON: %w", err)
	}
	if idea.Title == "" || idea.Description == "" {
		return nil, errors.New("mission idea response missing title or description")
	}
	return &idea, nil
}
