package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"TrialSync/internal/config"
	"TrialSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func chatReply(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func contextRecords() []*model.TrialRecord {
	return []*model.TrialRecord{
		{ID: "NCT1", Title: "Cardiac Monitor Study", Type: model.TypeInterventional, Status: "RECRUITING", Condition: []string{"Atrial Fibrillation"}, Sponsor: "Meditronix", StartDate: "2024-03-01", Source: model.SourceCTGov},
		{ID: "2022-001234-56", Title: "Valve Repair Trial", Type: model.TypeInterventional, Status: "ONGOING", Sponsor: "Veltrix", Source: model.SourceEUCTR},
	}
}

func TestAskSendsRecordsAndQuestion(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		fmt.Fprint(w, chatReply("Two interventional trials are tracked."))
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{
		BaseURL: server.URL,
		Model:   "llama-3.1-8b-instant",
		APIKey:  "test-key",
	}, testLogger())

	answer, err := client.Ask(context.Background(), "How many interventional trials?", contextRecords(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Two interventional trials are tracked.", answer)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "llama-3.1-8b-instant", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)

	// 记录与问题都要进用户提示词
	prompt := gotReq.Messages[1].Content
	assert.Contains(t, prompt, "Cardiac Monitor Study")
	assert.Contains(t, prompt, "Meditronix")
	assert.Contains(t, prompt, "Atrial Fibrillation")
	assert.Contains(t, prompt, "How many interventional trials?")
}

func TestAskCachesRepeatedQuestion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, chatReply("cached answer"))
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{BaseURL: server.URL, APIKey: "k"}, testLogger())

	first, err := client.Ask(context.Background(), "same question", contextRecords(), 0)
	require.NoError(t, err)
	second, err := client.Ask(context.Background(), "same question", contextRecords(), 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAskCacheKeyTracksCollectionSize(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, chatReply("ok"))
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{BaseURL: server.URL, APIKey: "k"}, testLogger())

	_, err := client.Ask(context.Background(), "q", contextRecords(), 0)
	require.NoError(t, err)
	// 集合规模变了，缓存键随之失效
	_, err = client.Ask(context.Background(), "q", contextRecords()[:1], 0)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestAskCapsContextRecords(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		fmt.Fprint(w, chatReply("ok"))
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{BaseURL: server.URL, APIKey: "k"}, testLogger())

	_, err := client.Ask(context.Background(), "q", contextRecords(), 1)
	require.NoError(t, err)

	prompt := gotReq.Messages[1].Content
	assert.Contains(t, prompt, "Cardiac Monitor Study")
	assert.NotContains(t, prompt, "Valve Repair Trial")
}

func TestAskWithoutAPIKey(t *testing.T) {
	client := NewClient(&config.LLMConfig{BaseURL: "http://unused"}, testLogger())

	_, err := client.Ask(context.Background(), "q", nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	client := NewClient(&config.LLMConfig{BaseURL: "http://unused", APIKey: "k"}, testLogger())

	_, err := client.Ask(context.Background(), "   ", nil, 0)
	require.Error(t, err)
}

func TestAskUpstreamErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{BaseURL: server.URL, APIKey: "k"}, testLogger())

	_, err := client.Ask(context.Background(), "q", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAskEmptyCollectionStillAnswers(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		fmt.Fprint(w, chatReply("No records yet."))
	}))
	defer server.Close()

	client := NewClient(&config.LLMConfig{BaseURL: server.URL, APIKey: "k"}, testLogger())

	answer, err := client.Ask(context.Background(), "anything?", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "No records yet.", answer)
	assert.Contains(t, gotReq.Messages[1].Content, "(no records available)")
}
