package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTokenShape(t *testing.T) {
	token := GenerateToken()
	assert.Len(t, token, 32)

	_, err := hex.DecodeString(token)
	assert.NoError(t, err)
}

func TestGenerateTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := GenerateToken()
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}
