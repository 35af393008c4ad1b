package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giggle/types"
)

// fakeNotion simulates the handful of Notion endpoints the client uses.
type fakeNotion struct {
	mu       sync.Mutex
	statuses map[string]types.Status
	patches  []string
}

func newFakeNotion(statuses map[string]types.Status) *fakeNotion {
	return &fakeNotion{statuses: statuses}
}

func (f *fakeNotion) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/databases/db-1/query", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filter struct {
				Select struct {
					Equals string `json:"equals"`
				} `json:"select"`
			} `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		f.mu.Lock()
		defer f.mu.Unlock()
		results := []map[string]interface{}{}
		for id, status := range f.statuses {
			if string(status) != req.Filter.Select.Equals {
				continue
			}
			results = append(results, pageJSON(id, status))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	})

	mux.HandleFunc("/v1/pages/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/v1/pages/"):]
		f.mu.Lock()
		defer f.mu.Unlock()
		status, ok := f.statuses[id]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(pageJSON(id, status))
		case http.MethodPatch:
			var req struct {
				Properties struct {
					Status struct {
						Select struct {
							Name string `json:"name"`
						} `json:"select"`
					} `json:"Status"`
				} `json:"properties"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.statuses[id] = types.Status(req.Properties.Status.Select.Name)
			f.patches = append(f.patches, id)
			json.NewEncoder(w).Encode(pageJSON(id, f.statuses[id]))
		}
	})

	mux.HandleFunc("/v1/pages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "research-page-1",
			"url": "https://www.notion.so/researchpage1",
		})
	})

	return mux
}

func pageJSON(id string, status types.Status) map[string]interface{} {
	return map[string]interface{}{
		"id":           id,
		"url":          "https://www.notion.so/" + id,
		"created_time": "2026-08-01T10:00:00.000Z",
		"properties": map[string]interface{}{
			"Topic": map[string]interface{}{
				"type":  "title",
				"title": []interface{}{map[string]interface{}{"plain_text": "Topic " + id}},
			},
			"Status": map[string]interface{}{
				"type":   "select",
				"select": map[string]interface{}{"name": string(status)},
			},
		},
	}
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient("test-key", "db-1", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestSelectTopicFromBacklog(t *testing.T) {
	f := newFakeNotion(map[string]types.Status{"t1": types.StatusBacklog})
	c := newTestClient(t, f)

	topic, err := c.SelectTopicFromBacklog(context.Background())
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, "t1", topic.PageID)
	assert.Equal(t, types.StatusCandidate, topic.Status)
	assert.Equal(t, types.StatusCandidate, f.statuses["t1"])
}

func TestSelectTopicFromEmptyBacklog(t *testing.T) {
	f := newFakeNotion(map[string]types.Status{"t1": types.StatusPublished})
	c := newTestClient(t, f)

	topic, err := c.SelectTopicFromBacklog(context.Background())
	require.NoError(t, err)
	assert.Nil(t, topic)
}

func TestTransitionTopic(t *testing.T) {
	f := newFakeNotion(map[string]types.Status{"t1": types.StatusCandidate})
	c := newTestClient(t, f)

	require.NoError(t, c.TransitionTopic(context.Background(), "t1", types.StatusResearch))
	assert.Equal(t, types.StatusResearch, f.statuses["t1"])

	// Re-applying the same status is a no-op, not an error.
	require.NoError(t, c.TransitionTopic(context.Background(), "t1", types.StatusResearch))

	// Walking backwards is rejected before any write happens.
	err := c.TransitionTopic(context.Background(), "t1", types.StatusCandidate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal status transition")
}

func TestCreateResearchPage(t *testing.T) {
	f := newFakeNotion(map[string]types.Status{"t1": types.StatusResearch})
	c := newTestClient(t, f)

	topic := &types.Topic{PageID: "t1", Title: "Quantum networking"}
	digest := &types.Digest{ExecutiveSummary: "summary"}

	id, err := c.CreateResearchPage(context.Background(), topic, digest)
	require.NoError(t, err)
	assert.Equal(t, "research-page-1", id)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "db-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.QueryTopicsByStatus(context.Background(), types.StatusBacklog, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"message":"bad filter"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "db-1", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.QueryTopicsByStatus(context.Background(), types.StatusBacklog, 10)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), fmt.Sprint(http.StatusBadRequest))
}
