package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/tally/pkg/lifecycle"
	"github.com/JaimeStill/tally/pkg/routes"
	"github.com/JaimeStill/tally/pkg/storage"
)

type mockStore struct {
	storage.System
	list     func(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error)
	find     func(ctx context.Context, key string) (*storage.BlobInfo, error)
	download func(ctx context.Context, key string) (*storage.BlobResult, error)
	del      func(ctx context.Context, key string) error
}

func (m *mockStore) Start(lc *lifecycle.Coordinator) error { return nil }
func (m *mockStore) Ready() bool                           { return true }

func (m *mockStore) List(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error) {
	return m.list(ctx, prefix, marker, maxResults)
}

func (m *mockStore) Find(ctx context.Context, key string) (*storage.BlobInfo, error) {
	return m.find(ctx, key)
}

func (m *mockStore) Download(ctx context.Context, key string) (*storage.BlobResult, error) {
	return m.download(ctx, key)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.del(ctx, key)
}

func sourcesMux(store storage.System) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	routes.Register(mux, newSourcesHandler(store, logger, 50).routes())
	return mux
}

func TestSourcesList(t *testing.T) {
	var gotPrefix, gotMarker string
	var gotMax int32
	store := &mockStore{
		list: func(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error) {
			gotPrefix, gotMarker, gotMax = prefix, marker, maxResults
			return &storage.BlobList{
				Blobs: []storage.BlobInfo{{Key: "sources/abc/facture.pdf", ContentType: "application/pdf"}},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sources?prefix=abc/&marker=m1&max_results=10", nil)
	sourcesMux(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if gotPrefix != "sources/abc/" {
		t.Errorf("prefix: got %q, want sources/abc/", gotPrefix)
	}
	if gotMarker != "m1" || gotMax != 10 {
		t.Errorf("marker/max: got %q/%d", gotMarker, gotMax)
	}

	var list storage.BlobList
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Blobs) != 1 || list.Blobs[0].Key != "abc/facture.pdf" {
		t.Errorf("blobs: got %+v", list.Blobs)
	}
}

func TestSourcesListDefaults(t *testing.T) {
	var gotPrefix string
	var gotMax int32
	store := &mockStore{
		list: func(ctx context.Context, prefix, marker string, maxResults int32) (*storage.BlobList, error) {
			gotPrefix, gotMax = prefix, maxResults
			return &storage.BlobList{}, nil
		},
	}

	rec := httptest.NewRecorder()
	sourcesMux(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if gotPrefix != "sources/" || gotMax != 50 {
		t.Errorf("prefix/max: got %q/%d", gotPrefix, gotMax)
	}
}

func TestSourcesListInvalidMaxResults(t *testing.T) {
	rec := httptest.NewRecorder()
	sourcesMux(&mockStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources?max_results=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSourcesFind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"found", nil, http.StatusOK},
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"invalid key", storage.ErrInvalidKey, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			store := &mockStore{
				find: func(ctx context.Context, key string) (*storage.BlobInfo, error) {
					gotKey = key
					if tt.err != nil {
						return nil, tt.err
					}
					return &storage.BlobInfo{Key: key, ContentType: "image/png"}, nil
				},
			}

			rec := httptest.NewRecorder()
			sourcesMux(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources/abc/facture.png", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if gotKey != "sources/abc/facture.png" {
				t.Errorf("key: got %q", gotKey)
			}
			if tt.err == nil {
				var info storage.BlobInfo
				if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if info.Key != "abc/facture.png" {
					t.Errorf("response key: got %q", info.Key)
				}
			}
		})
	}
}

func TestSourcesDownload(t *testing.T) {
	var gotKey string
	store := &mockStore{
		download: func(ctx context.Context, key string) (*storage.BlobResult, error) {
			gotKey = key
			return &storage.BlobResult{
				Body:          io.NopCloser(strings.NewReader("%PDF-1.7")),
				ContentType:   "application/pdf",
				ContentLength: 8,
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	sourcesMux(store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources/download/abc/facture.pdf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if gotKey != "sources/abc/facture.pdf" {
		t.Errorf("key: got %q", gotKey)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="facture.pdf"` {
		t.Errorf("content disposition: got %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "8" {
		t.Errorf("content length: got %q, want 8", got)
	}
	if rec.Body.String() != "%PDF-1.7" {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestSourcesDelete(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", storage.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			store := &mockStore{
				del: func(ctx context.Context, key string) error {
					gotKey = key
					return tt.err
				},
			}

			rec := httptest.NewRecorder()
			sourcesMux(store).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sources/abc/facture.pdf", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if gotKey != "sources/abc/facture.pdf" {
				t.Errorf("key: got %q", gotKey)
			}
		})
	}
}
