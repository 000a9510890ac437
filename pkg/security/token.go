package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const publicTokenBytes = 24

// NewPublicToken returns an unguessable URL-safe token used by customer-facing
// order and budget links.
func NewPublicToken() (string, error) {
	buf := make([]byte, publicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
