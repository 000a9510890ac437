package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
)

// requestIDHeader is set by the request id middleware before any handler runs.
const requestIDHeader = "X-Request-Id"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Envelope{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError renders err as a problem envelope and logs it: 5xx at error
// level, everything else as a warning.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	problem := problemFor(typed, meta)
	problem.RequestID = w.Header().Get(requestIDHeader)

	if logg != nil {
		logError(ctx, logg, err, meta.HTTPStatus)
	}
	writeJSON(w, meta.HTTPStatus, types.ProblemEnvelope{Error: problem})
}

// problemFor keeps internal messages private unless the code lets them
// through. Unauthorized and rate-limit messages always reach the caller.
func problemFor(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.Problem {
	p := types.Problem{Code: string(typed.Code()), Message: meta.PublicMessage}
	showMessage := meta.PassMessage ||
		typed.Code() == pkgerrors.CodeUnauthorized ||
		typed.Code() == pkgerrors.CodeRateLimit
	if m := typed.Message(); showMessage && m != "" {
		p.Message = m
	}
	if meta.DetailsAllowed {
		p.Details = typed.Details()
	}
	return p
}

func logError(ctx context.Context, logg *logger.Logger, err error, status int) {
	dump := pkgerrors.Dump(err)
	ctx = logg.WithFields(ctx, map[string]any{
		"status":            status,
		"error_code":        dump.Code,
		"error_chain":       dump.Chain,
		"pg_code":           dump.PGCode,
		"pg_detail":         dump.PGDetail,
		"pg_constraint":     dump.PGConstraint,
		"sqlite_constraint": dump.SQLiteConstraint,
	})
	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.WarnErr(ctx, "request.rejected", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// headers are already out; an encode failure can only be a broken connection
	_ = json.NewEncoder(w).Encode(payload)
}
