package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONVariants(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}\n", `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"unlabeled fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Here is the result: {\"a\":1} — hope that helps!", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.content)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractJSONFailure(t *testing.T) {
	_, err := extractJSON("I could not produce a judgment for this mission.")
	assert.Error(t, err)
}

func TestParseEvaluationRewardAsString(t *testing.T) {
	eval, err := parseEvaluation([]byte(`{
		"difficulty": 6, "impact": 8, "confidence": 0.82,
		"rationale": "hard and useful",
		"reward": "480000000000000000"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 6, eval.Difficulty)
	assert.Equal(t, 8, eval.Impact)
	require.NotNil(t, eval.RewardWei)
	assert.Equal(t, "480000000000000000", eval.RewardWei.String())
}

func TestParseEvaluationRoundsFractionalScores(t *testing.T) {
	eval, err := parseEvaluation([]byte(`{
		"difficulty": 6.6, "impact": 7.2, "confidence": 0.8,
		"rationale": "models sometimes return fractions"
	}`))
	require.NoError(t, err)
	assert.Equal(t, 7, eval.Difficulty)
	assert.Equal(t, 7, eval.Impact)
	assert.Nil(t, eval.RewardWei)
}

func TestParseEvaluationRejectsOutOfRange(t *testing.T) {
	bad := []string{
		`{"difficulty": 0, "impact": 5, "confidence": 0.8, "rationale": "r"}`,
		`{"difficulty": 5, "impact": 11, "confidence": 0.8, "rationale": "r"}`,
		`{"difficulty": 5, "impact": 5, "confidence": 1.5, "rationale": "r"}`,
	}
	for _, raw := range bad {
		_, err := parseEvaluation([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func newStubClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := &Client{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Mode:        ModeTest,
		TextModel:   "stub/text",
		VisionModel: "stub/vision",
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
	}
	return client, server.Close
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	})
	require.NoError(t, err)
}

func TestEvaluateMissionEndToEnd(t *testing.T) {
	client, closeFn := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "stub/text", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)

		chatReply(t, w, "```json\n{\"difficulty\":4,\"impact\":6,\"confidence\":0.85,\"rationale\":\"solid local impact\"}\n```")
	})
	defer closeFn()

	eval, err := client.EvaluateMission(context.Background(), MissionSummary{
		Title: "Clean the park", Description: "Pick up litter", Category: "environment",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, eval.Difficulty)
	assert.Equal(t, 6, eval.Impact)
	assert.Equal(t, 0.85, eval.Confidence)
}

func TestScreenProposalEndToEnd(t *testing.T) {
	client, closeFn := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"approved":false,"confidence":0.9,"reason":"advertising, not a public good","suggestion":"reframe around community benefit"}`)
	})
	defer closeFn()

	result, err := client.ScreenProposal(context.Background(), MissionSummary{
		Title: "Buy my product", Description: "Please buy it", Category: "other",
	})
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.Equal(t, 0.9, result.Confidence)
	assert.NotEmpty(t, result.Suggestion)
}

func TestChatErrorStatusSurfaced(t *testing.T) {
	client, closeFn := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "insufficient credits"},
		})
	})
	defer closeFn()

	_, err := client.EvaluateMission(context.Background(), MissionSummary{Title: "m", Description: "d", Category: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient credits")
}

func TestUnavailableClientRefuses(t *testing.T) {
	client := &Client{}
	assert.False(t, client.Available())

	_, err := client.EvaluateMission(context.Background(), MissionSummary{Title: "m", Description: "d", Category: "c"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMissionSummaryString(t *testing.T) {
	s := MissionSummary{Title: "T", Description: "D", Category: "C"}.String()
	assert.Contains(t, s, "Mission: T")
	assert.Contains(t, s, "Location: Not specified")
}
