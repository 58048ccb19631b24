package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddResponse(t *testing.T) {
	ice := NewIcebreaker("room-1", "Where are you joining from?", "org-1")

	require.NoError(t, ice.AddResponse("u1", "User One", "Lisbon", time.Now()))
	assert.Equal(t, 1, ice.ResponseCount)

	err := ice.AddResponse("u1", "User One", "still Lisbon", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyResponded)
	assert.Equal(t, 1, ice.ResponseCount)

	require.NoError(t, ice.AddResponse("u2", "User Two", "Oslo", time.Now()))
	assert.Equal(t, 2, ice.ResponseCount)
	assert.Equal(t, len(ice.Responses), ice.ResponseCount)
}

func TestAddResponseClosed(t *testing.T) {
	ice := NewIcebreaker("room-1", "Coffee or tea?", "org-1")
	ice.IsActive = false

	err := ice.AddResponse("u1", "User One", "coffee", time.Now())
	assert.ErrorIs(t, err, ErrIcebreakerClosed)
}
