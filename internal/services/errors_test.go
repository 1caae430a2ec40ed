package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDBErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), ErrConflict},
		{"missing record", gorm.ErrRecordNotFound, ErrNotFound},
		{"other", errors.New("connection refused"), ErrPersistence},
		{"already classified", invalidState("rfq is closed"), ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dbError(tt.err, "version")
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.NoError(t, dbError(nil, "version"))
}

func TestErrorUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := dbError(cause, "communication")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence_error", AsError(err).Code())
	assert.Contains(t, err.Error(), "disk full")
}

func TestAsErrorWrapsUnknown(t *testing.T) {
	se := AsError(errors.New("boom"))
	assert.ErrorIs(t, se, ErrPersistence)
	assert.Equal(t, "internal error", se.Message)
}
