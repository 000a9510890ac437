package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ProblemEnvelope {
	t.Helper()
	var body types.ProblemEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"codigo": "PED-1A2B3C4D"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	var body types.Envelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["codigo"] != "PED-1A2B3C4D" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorPassesTransitionReason(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "Transição inválida: PRODUCAO → ENTREGUE").
		WithDetails(map[string]string{"from": "PRODUCAO", "to": "ENTREGUE"})
	WriteError(context.Background(), logger.Nop(), w, fmt.Errorf("execute: %w", err))

	if got := w.Code; got != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 but got %d", got)
	}
	body := decodeError(t, w)
	if body.Error.Message != "Transição inválida: PRODUCAO → ENTREGUE" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	details, ok := body.Error.Details.(map[string]any)
	if !ok || details["from"] != "PRODUCAO" || details["to"] != "ENTREGUE" {
		t.Fatalf("unexpected details %v", body.Error.Details)
	}
}

func TestWriteErrorHidesDependencyMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("s3: access denied"), "upload budget pdf"))

	if got := w.Code; got != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 but got %d", got)
	}
	if msg := decodeError(t, w).Error.Message; msg != "dependency unavailable" {
		t.Fatalf("dependency message leaked: %q", msg)
	}
}

func TestWriteErrorDefaultsToInternalForUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	body := decodeError(t, w)
	if body.Error.Code != string(pkgerrors.CodeInternal) || body.Error.Message != "internal server error" {
		t.Fatalf("unexpected payload %+v", body.Error)
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-Id", "req-42")
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "Pedido não encontrado"))

	body := decodeError(t, w)
	if body.Error.RequestID != "req-42" {
		t.Fatalf("expected request id echoed, got %q", body.Error.RequestID)
	}
	if body.Error.Message != "Pedido não encontrado" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}
