package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/docsum/internal/client/models"
	"github.com/dmitrijs2005/docsum/internal/client/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_DefaultsAndPagination(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	e.mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "createdAt", q.Get("sortBy"))
		assert.Equal(t, "desc", q.Get("sortOrder"))
		writeJSON(w, 200, map[string]any{
			"data": []map[string]any{
				{"id": 7, "title": "Attention", "fileName": "attention.pdf", "fileType": "application/pdf",
					"fileSize": 2048, "status": "COMPLETED", "createdAt": "2024-05-01T10:00:00.000Z"},
			},
			"pagination": map[string]any{"page": 2, "limit": 10, "total": 11, "totalPages": 2},
		})
	})

	page, err := NewDocumentService(e.gw).List(context.Background(), models.ListQuery{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.DocumentCompleted, page.Data[0].Status)
	assert.Equal(t, 11, page.Pagination.Total)
}

func TestList_EmptyData(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	e.mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{})
	})

	page, err := NewDocumentService(e.gw).List(context.Background(), models.ListQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	e.mux.HandleFunc("GET /documents/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"id": 7, "title": "Attention", "summary": "short"})
	})

	doc, err := NewDocumentService(e.gw).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "short", doc.Summary)
}

func TestUpload_Multipart(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	e.mux.HandleFunc("POST /documents/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.Equal(t, "Bearer a.b.c", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "notes", r.FormValue("title"))
		f, hdr, err := r.FormFile("document")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "notes.txt", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "hello world", string(data))

		writeJSON(w, 201, map[string]any{"document": map[string]any{"id": 9, "title": "notes", "status": "PENDING"}})
	})

	doc, err := NewDocumentService(e.gw).Upload(context.Background(), UploadRequest{
		FileName: "notes.txt",
		Size:     11,
		Body:     strings.NewReader("hello world"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, models.DocumentPending, doc.Status)
}

func TestUpload_RejectedLocally(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)

	_, err := NewDocumentService(e.gw).Upload(context.Background(), UploadRequest{
		FileName: "image.png",
		Size:     3,
		Body:     strings.NewReader("png"),
	})
	require.ErrorIs(t, err, validation.ErrInvalidUpload)
}

func TestDeleteSummarizeEmbed(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	var (
		mu   sync.Mutex
		hits []string
	)
	record := func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.Method+" "+r.URL.Path)
		mu.Unlock()
		writeJSON(w, 200, map[string]any{"message": "ok"})
	}
	e.mux.HandleFunc("DELETE /documents/3", record)
	e.mux.HandleFunc("POST /documents/3/summarize", record)
	e.mux.HandleFunc("POST /documents/3/embeddings", record)

	svc := NewDocumentService(e.gw)
	ctx := context.Background()
	require.NoError(t, svc.Summarize(ctx, 3))
	require.NoError(t, svc.GenerateEmbeddings(ctx, 3))
	require.NoError(t, svc.Delete(ctx, 3))

	assert.Equal(t, []string{
		"POST /documents/3/summarize",
		"POST /documents/3/embeddings",
		"DELETE /documents/3",
	}, hits)
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	e.signIn(t)
	e.mux.HandleFunc("POST /documents/search", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "transformers", in["query"])
		assert.Equal(t, float64(10), in["limit"])
		writeJSON(w, 200, map[string]any{"results": []map[string]any{
			{"id": 1, "title": "Attention", "fileName": "a.pdf", "similarity": 0.91, "extractedText": "..."},
		}})
	})

	results, err := NewDocumentService(e.gw).Search(context.Background(), "transformers", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.91, results[0].Similarity, 1e-9)
}
