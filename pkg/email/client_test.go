package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.EmailConfig{APIKey: "re_test", BaseURL: srv.URL, From: "Vidrobox <pedidos@vidrobox.com.br>"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSendPostsPayloadWithAttachments(t *testing.T) {
	var captured map[string]any
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	})

	id, err := client.Send(context.Background(), Message{
		To:      []string{"ana@example.com"},
		Subject: "Seu orçamento",
		HTML:    "<p>Olá</p>",
		Attachments: []Attachment{
			{Filename: "orcamento.pdf", Content: []byte("%PDF"), ContentType: "application/pdf"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("unexpected id %q", id)
	}
	if auth != "Bearer re_test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if captured["from"] != "Vidrobox <pedidos@vidrobox.com.br>" {
		t.Fatalf("unexpected from %v", captured["from"])
	}
	atts, ok := captured["attachments"].([]any)
	if !ok || len(atts) != 1 {
		t.Fatalf("expected one attachment, got %v", captured["attachments"])
	}
	first := atts[0].(map[string]any)
	if first["content"] != base64.StdEncoding.EncodeToString([]byte("%PDF")) {
		t.Fatalf("attachment not base64 encoded: %v", first["content"])
	}
}

func TestSendMissingIDIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "x", HTML: "x"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeEmailFailed {
		t.Fatalf("expected email failed, got %v", err)
	}
}

func TestSendProviderErrorIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	})

	_, err := client.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "x", HTML: "x"})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeEmailFailed {
		t.Fatalf("expected email failed, got %v", err)
	}
}

func TestSendProviderErrorKeepsValidUTF8(t *testing.T) {
	// one ASCII byte first so the byte limit lands inside a two-byte rune
	body := "x" + strings.Repeat("ã", errorBodyLimit)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	})

	_, err := client.Send(context.Background(), Message{To: []string{"a@b.com"}, Subject: "x", HTML: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !utf8.ValidString(err.Error()) {
		t.Fatalf("error message is not valid UTF-8: %q", err.Error())
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"curto", 10, "curto"},
		{"abcdef", 3, "abc"},
		{"aã", 2, "a"},
		{"ããã", 4, "ãã"},
		{"ã", 1, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if _, err := client.Send(context.Background(), Message{}); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(config.EmailConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
