// Package auth manages the bearer token that guards the local HTTP surface.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tokenFileName = "serve-token"

// TokenPath is where the token for dir lives.
func TokenPath(dir string) string {
	return filepath.Join(dir, tokenFileName)
}

// LoadOrCreateToken reads the token from dir, or generates and persists a
// new 256-bit hex token if the file is missing or empty.
func LoadOrCreateToken(dir string) (string, error) {
	data, err := os.ReadFile(TokenPath(dir))
	if token := strings.TrimSpace(string(data)); err == nil && token != "" {
		return token, nil
	}
	return RotateToken(dir)
}

// RotateToken replaces the token. Clients holding the old one are locked out.
func RotateToken(dir string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := writeToken(dir, token); err != nil {
		return "", err
	}
	return token, nil
}

// Matches compares a presented token with the expected one in constant time.
func Matches(expected, presented string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func writeToken(dir, token string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(TokenPath(dir), []byte(token), 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
