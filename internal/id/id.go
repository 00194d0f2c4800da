// Package id generates record identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet and Length match PocketBase's default record ids, so records
	// created by either backend look alike to clients.
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	Length   = 15
)

// New returns a random 15-character lowercase alphanumeric id.
func New() (string, error) {
	v, err := gonanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return v, nil
}
