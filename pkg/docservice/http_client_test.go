package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andrew/doc-chat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, 5*time.Second, nil)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestUploadDocument_SendsMultipartFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "Document processed successfully",
			"file_name": "report.pdf",
			"status":    "ready_for_queries",
			"features":  map[string]bool{"ocr_available": true, "faiss_available": false},
		})
	})

	ack, err := client.UploadDocument(context.Background(), models.DocumentFile{Name: "report.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", ack.FileName)
	assert.Equal(t, "ready_for_queries", ack.Status)
	assert.True(t, ack.Features.OCRAvailable)
	assert.False(t, ack.Features.FAISSAvailable)
}

func TestUploadDocument_ServerErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        interface{}
		wantMessage string
	}{
		{
			name:        "detail wins",
			status:      http.StatusBadRequest,
			body:        map[string]string{"error": "Invalid file type", "detail": "bad format"},
			wantMessage: "bad format",
		},
		{
			name:        "error when no detail",
			status:      http.StatusInternalServerError,
			body:        map[string]string{"error": "Failed to save file"},
			wantMessage: "Failed to save file",
		},
		{
			name:        "non-string detail falls back to error",
			status:      http.StatusUnprocessableEntity,
			body:        map[string]interface{}{"detail": []map[string]string{{"msg": "field required"}}, "error": "validation"},
			wantMessage: "validation",
		},
		{
			name:        "generic fallback",
			status:      http.StatusBadGateway,
			body:        map[string]string{},
			wantMessage: uploadFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.UploadDocument(context.Background(), models.DocumentFile{Name: "a.txt", Data: []byte("x")})
			require.Error(t, err)

			var uploadErr *UploadError
			require.True(t, errors.As(err, &uploadErr))
			assert.Equal(t, tt.wantMessage, uploadErr.Message)
			assert.Equal(t, tt.status, uploadErr.StatusCode)
			assert.Equal(t, "Upload failed: "+tt.wantMessage, err.Error())
		})
	}
}

func TestUploadDocument_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.UploadDocument(context.Background(), models.DocumentFile{Name: "a.txt", Data: []byte("x")})

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.NotNil(t, uploadErr.Unwrap())
	assert.Contains(t, err.Error(), "failed to parse upload response")
}

func TestUploadDocument_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, time.Second, nil)
	_, err := client.UploadDocument(context.Background(), models.DocumentFile{Name: "a.txt", Data: []byte("x")})

	var uploadErr *UploadError
	require.True(t, errors.As(err, &uploadErr))
	assert.Zero(t, uploadErr.StatusCode)
	assert.Error(t, uploadErr.Unwrap())
	assert.Contains(t, err.Error(), "failed to send request")
}

func TestQueryDocument_ListResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "What is X?", r.URL.Query().Get("query"))
		assert.Empty(t, r.URL.Query().Get("session_id"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"query": "What is X?",
			"results": []map[string]interface{}{
				{"content": " A ", "section": "S", "relevance_score": "0.9"},
				{"content": "B", "relevance_score": 0.4},
			},
			"total_results": 2,
			"metadata":      map[string]interface{}{"sections_found": []string{"S"}},
		})
	})

	resp, err := client.QueryDocument(context.Background(), SessionContext{}, "What is X?")
	require.NoError(t, err)
	assert.Equal(t, ResultsList, resp.Results.Kind)
	require.Len(t, resp.Results.Items, 2)
	assert.Equal(t, models.SearchResult{Content: " A ", Section: "S", RelevanceScore: "0.9"}, resp.Results.Items[0])
	assert.Equal(t, "0.4", resp.Results.Items[1].RelevanceScore)
	assert.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, []string{"S"}, resp.Metadata.SectionsFound)
}

func TestQueryDocument_TextResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": "The answer is 42"})
	})

	resp, err := client.QueryDocument(context.Background(), SessionContext{}, "question")
	require.NoError(t, err)
	assert.Equal(t, ResultsText, resp.Results.Kind)
	assert.Equal(t, "The answer is 42", resp.Results.Text)
}

func TestQueryDocument_ThreadsSessionContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-1", r.URL.Query().Get("session_id"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": "ok", "session_id": "sess-2"})
	})

	resp, err := client.QueryDocument(context.Background(), SessionContext{ID: "sess-1"}, "q")
	require.NoError(t, err)
	assert.Equal(t, "sess-2", resp.SessionID)
}

func TestQueryDocument_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "No document has been processed yet. Please upload a document first.",
		})
	})

	_, err := client.QueryDocument(context.Background(), SessionContext{}, "q")

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, http.StatusBadRequest, queryErr.StatusCode)
	assert.Equal(t, "Query failed: No document has been processed yet. Please upload a document first.", err.Error())
}

func TestQueryDocument_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": "late"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.QueryDocument(ctx, SessionContext{}, "q")

	var queryErr *QueryError
	require.True(t, errors.As(err, &queryErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			writeJSON(w, http.StatusOK, map[string]string{"status": "Active and Running"})
			return
		}
		http.NotFound(w, r)
	})
	assert.NoError(t, client.Health(context.Background()))

	down := NewHTTPClient("http://127.0.0.1:1", time.Second, nil)
	assert.Error(t, down.Health(context.Background()))
}

func TestNewClient_ValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "ftp://docs.internal"}, nil)
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "http://localhost:8000", Timeout: -time.Second}, nil)
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://localhost:8000/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.baseURL)

	c, err = NewClient(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BaseURL, c.baseURL)
}
