package types

import "github.com/angelmondragon/vidrobox-backend/pkg/enums"

// FileEntry is one element of a budget's file manifest.
type FileEntry struct {
	Kind        enums.BudgetFileKind `json:"kind"`
	URL         string               `json:"url"`
	Name        string               `json:"name,omitempty"`
	ContentType string               `json:"content_type,omitempty"`
}
