package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetReturnsBodyAndType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	file, err := NewClient(1024, time.Second).Get(context.Background(), srv.URL+"/nota.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(file.Body) != "%PDF-1.4" || file.ContentType != "application/pdf" {
		t.Fatalf("unexpected file %+v", file)
	}
}

func TestGetRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer srv.Close()

	if _, err := NewClient(16, time.Second).Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected size error")
	}
}

func TestGetRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := NewClient(0, 0).Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected status error")
	}
}
