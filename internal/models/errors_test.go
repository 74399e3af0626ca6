package models_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driveline/driveline/internal/models"
)

func TestPhysicalError(t *testing.T) {
	cause := fs.ErrPermission
	err := models.NewPhysicalError(models.OpMove, "/docs/a.txt", cause)

	t.Run("message carries op and path", func(t *testing.T) {
		assert.Contains(t, err.Error(), "move")
		assert.Contains(t, err.Error(), "/docs/a.txt")
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		assert.ErrorIs(t, err, cause)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("rename folder: %w", err)
		assert.True(t, models.IsPhysical(wrapped, models.OpMove))
		assert.True(t, models.IsPhysical(wrapped, ""))
		assert.False(t, models.IsPhysical(wrapped, models.OpWrite))
	})

	t.Run("plain errors are not physical", func(t *testing.T) {
		assert.False(t, models.IsPhysical(errors.New("boom"), ""))
		assert.False(t, models.IsPhysical(models.ErrNodeNotFound, models.OpRead))
	})
}
