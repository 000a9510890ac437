package budgets

import (
	"path"
	"strings"

	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
)

// MergeManifest rebuilds a budget's file list after a conversion.
//
// Previous quote and invoice entries and any entry pointing at a current
// photo are dropped, then the new quote, the invoice and the photos are
// appended. Re-running a conversion therefore never duplicates entries, and a
// changed or cleared invoice URL leaves at most the current invoice behind.
func MergeManifest(existing []types.FileEntry, quote types.FileEntry, invoiceURL string, photoURLs []string) []types.FileEntry {
	invoiceURL = strings.TrimSpace(invoiceURL)
	replaced := make(map[string]struct{}, len(photoURLs)+1)
	if invoiceURL != "" {
		replaced[invoiceURL] = struct{}{}
	}
	photos := make([]string, 0, len(photoURLs))
	for _, u := range photoURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := replaced[u]; dup {
			continue
		}
		replaced[u] = struct{}{}
		photos = append(photos, u)
	}

	out := make([]types.FileEntry, 0, len(existing)+len(photos)+2)
	for _, entry := range existing {
		if entry.Kind == enums.BudgetFileQuote || entry.Kind == enums.BudgetFileInvoice {
			continue
		}
		if _, ok := replaced[entry.URL]; ok {
			continue
		}
		out = append(out, entry)
	}

	quote.Kind = enums.BudgetFileQuote
	out = append(out, quote)
	if invoiceURL != "" {
		out = append(out, types.FileEntry{Kind: enums.BudgetFileInvoice, URL: invoiceURL, Name: fileName(invoiceURL, "nota-fiscal.pdf")})
	}
	for _, u := range photos {
		out = append(out, types.FileEntry{Kind: enums.BudgetFilePhoto, URL: u, Name: fileName(u, "foto")})
	}
	return out
}

// fileName derives a display name from the last path segment of a URL.
func fileName(rawURL, fallback string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	name := path.Base(trimmed)
	if name == "" || name == "." || name == "/" || strings.HasSuffix(trimmed, "/") {
		return fallback
	}
	return name
}
