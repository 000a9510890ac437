package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
)

// IntRange bounds a numeric query parameter; Default applies when it is absent.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

// PageLimit is the range accepted for ?limit= on list endpoints.
var PageLimit = IntRange{Default: pagination.DefaultLimit, Min: 1, Max: pagination.MaxLimit}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func queryError(key, message string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

func QueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return bounds.Default, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "query parameter must be numeric", nil)
	}
	if n < bounds.Min || n > bounds.Max {
		return 0, queryError(key, "query parameter out of range", map[string]any{"min": bounds.Min, "max": bounds.Max})
	}
	return n, nil
}

// QueryBool accepts the strconv.ParseBool spellings; absent means false.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, queryError(key, "query parameter must be a boolean", nil)
	}
	return b, nil
}

// PageParams reads ?limit= and ?cursor= for cursor-paginated lists.
func PageParams(r *http.Request) (pagination.Params, error) {
	limit, err := QueryInt(r, "limit", PageLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: queryValue(r, "cursor")}, nil
}
