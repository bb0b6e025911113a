package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarelay/internal/config"
	"stellarelay/internal/logger"
	"stellarelay/internal/settings"
	"stellarelay/pkg/models"
)

type memoryRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *memoryRecorder) Record(entryType string, v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result, ok := v.(Result); ok {
		r.results = append(r.results, result)
	}
	return nil
}

func (r *memoryRecorder) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func testEvent() *models.CanonicalEvent {
	return &models.CanonicalEvent{
		EventType: models.EventTypeSystemEntry,
		Timestamp: "2025-01-01T00:00:00Z",
		Data: &models.SystemEntryData{
			System:      "Sol",
			Coordinates: []float64{0, 0, 0},
		},
	}
}

func newTestClient(recorder Recorder) *Client {
	return NewClient(config.DeliveryConfig{
		Timeout:      2 * time.Second,
		DrainTimeout: 2 * time.Second,
	}, recorder, logger.NopLogger())
}

func TestSendPostsSingleEventArray(t *testing.T) {
	type captured struct {
		path    string
		apiKey  string
		agent   string
		content string
		body    []byte
	}
	received := make(chan captured, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- captured{
			path:    r.URL.Path,
			apiKey:  r.Header.Get("x-api-key"),
			agent:   r.Header.Get("User-Agent"),
			content: r.Header.Get("Content-Type"),
			body:    body,
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(recorder)

	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: true,
		APIURL:  server.URL,
		APIKey:  "secret",
	})
	require.NoError(t, client.Close(context.Background()))

	got := <-received
	assert.Equal(t, "/exploration/events", got.path)
	assert.Equal(t, "secret", got.apiKey)
	assert.Contains(t, got.agent, "stellar-relay/")
	assert.Equal(t, "application/json", got.content)

	var batch []map[string]interface{}
	require.NoError(t, json.Unmarshal(got.body, &batch))
	require.Len(t, batch, 1, "body must be a one-element array")
	assert.Equal(t, "SystemEntry", batch[0]["event_type"])

	results := recorder.snapshot()
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
}

func TestSendNormalizesTrailingSlash(t *testing.T) {
	paths := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(nil)
	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: true,
		APIURL:  server.URL + "/",
	})
	require.NoError(t, client.Close(context.Background()))

	assert.Equal(t, "/exploration/events", <-paths)
}

func TestSendSkipsWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("delivery must not reach the network when disabled")
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(recorder)

	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: false,
		APIURL:  server.URL,
	})
	require.NoError(t, client.Close(context.Background()))
	assert.Empty(t, recorder.snapshot())
}

func TestSendSkipsBadURLs(t *testing.T) {
	recorder := &memoryRecorder{}
	client := newTestClient(recorder)

	for _, apiURL := range []string{"", "relative/path", "ftp://example.com"} {
		client.Send(context.Background(), testEvent(), settings.Settings{
			Enabled: true,
			APIURL:  apiURL,
		})
	}
	require.NoError(t, client.Close(context.Background()))
	assert.Empty(t, recorder.snapshot())
}

func TestSendRecordsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	recorder := &memoryRecorder{}
	client := newTestClient(recorder)

	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: true,
		APIURL:  server.URL,
	})
	require.NoError(t, client.Close(context.Background()))

	results := recorder.snapshot()
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, http.StatusBadGateway, results[0].StatusCode)
	assert.NotEmpty(t, results[0].Error)
}

func TestSendDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(nil)

	start := time.Now()
	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: true,
		APIURL:  server.URL,
	})
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Send must return before the request completes")
}

func TestCloseTimesOutOnHungDelivery(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(config.DeliveryConfig{
		Timeout:      10 * time.Second,
		DrainTimeout: 50 * time.Millisecond,
	}, nil, logger.NopLogger())

	client.Send(context.Background(), testEvent(), settings.Settings{
		Enabled: true,
		APIURL:  server.URL,
	})
	assert.Error(t, client.Close(context.Background()))
}
