package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateInvitationToken returns a random, URL-safe invitation token.
func GenerateInvitationToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
