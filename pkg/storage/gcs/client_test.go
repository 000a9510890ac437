package gcs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"google.golang.org/api/option"
)

type fakeGCS struct {
	mu      sync.Mutex
	uploads []*http.Request
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/b/budgets"):
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "budgets"})
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/b/budgets/o"):
		f.mu.Lock()
		f.uploads = append(f.uploads, r)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "vidrobox/budgets/abc/orcamento-1.pdf", "bucket": "budgets"})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(),
		config.GCSConfig{BucketName: "budgets", PublicBaseURL: "https://storage.googleapis.com"},
		config.GCPConfig{},
		nil,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestPutUploadsPublicObject(t *testing.T) {
	fake := &fakeGCS{}
	client := newTestClient(t, fake)

	obj, err := client.Put(context.Background(), "vidrobox/budgets/abc/orcamento-1.pdf", []byte("%PDF-1.4"), storage.PutOptions{
		ContentType: "application/pdf",
		Public:      true,
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.URL != "https://storage.googleapis.com/budgets/vidrobox/budgets/abc/orcamento-1.pdf" {
		t.Fatalf("unexpected url %s", obj.URL)
	}
	if len(fake.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(fake.uploads))
	}
	if acl := fake.uploads[0].URL.Query().Get("predefinedAcl"); acl != "publicRead" {
		t.Fatalf("expected publicRead acl, got %q", acl)
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	client := newTestClient(t, &fakeGCS{})
	if _, err := client.Put(context.Background(), "", nil, storage.PutOptions{}); err == nil {
		t.Fatal("expected empty key to fail")
	}
}

func TestNewClientFailsWhenBucketMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(context.Background(),
		config.GCSConfig{BucketName: "missing"},
		config.GCPConfig{},
		nil,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	if err == nil {
		t.Fatal("expected health check failure")
	}
}
