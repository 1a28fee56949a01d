package validator

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func base64String(length int) string {
	arr := make([]byte, length)
	for i := range arr {
		arr[i] = 'a'
	}
	return base64.StdEncoding.EncodeToString(arr)
}

func TestArchiveSize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, ValidateArchiveSize(len(base64String(1<<23))), "max size should work")
	})

	t.Run("ValidSmall", func(t *testing.T) {
		assert.True(t, ValidateArchiveSize(len(base64String(10))), "small size should work")
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.False(t, ValidateArchiveSize(len(base64String((1<<23)+100))), "too big")
	})
}

func TestFileSize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.True(t, ValidateFileSize(1<<20), "max size should work")
	})

	t.Run("Invalid", func(t *testing.T) {
		assert.False(t, ValidateFileSize((1<<20)+1), "too big")
	})
}
