package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("mypassword")

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "mypassword", hash)
}

func TestCheckPassword(t *testing.T) {
	hash, _ := HashPassword("mypassword")

	assert.True(t, CheckPassword(hash, "mypassword"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
	assert.False(t, CheckPassword("not-a-hash", "mypassword"))
}
