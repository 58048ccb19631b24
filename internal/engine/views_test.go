package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagelink/backend/internal/domain"
)

func TestNewPollViewPercentages(t *testing.T) {
	poll, err := domain.NewPoll("room-1", "Favorite track?", []string{"keynote", "workshops", "hallway"}, false, nil, "org-1")
	require.NoError(t, err)

	// nobody voted yet: every percentage is zero, not NaN
	empty := NewPollView(poll)
	for _, opt := range empty.Options {
		assert.Equal(t, 0, opt.Percentage)
	}

	now := time.Now()
	require.NoError(t, poll.RecordVote("u1", []int{0}, now))
	require.NoError(t, poll.RecordVote("u2", []int{0}, now))
	require.NoError(t, poll.RecordVote("u3", []int{1}, now))

	view := NewPollView(poll)
	assert.Equal(t, 3, view.TotalVotes)
	assert.Equal(t, 67, view.Options[0].Percentage)
	assert.Equal(t, 33, view.Options[1].Percentage)
	assert.Equal(t, 0, view.Options[2].Percentage)
	assert.Equal(t, 2, view.Options[0].VoteCount)
}

func TestNewPollViewHidesVoterList(t *testing.T) {
	poll, err := domain.NewPoll("room-1", "Ready?", []string{"yes", "no"}, false, nil, "org-1")
	require.NoError(t, err)
	require.NoError(t, poll.RecordVote("u1", []int{0}, time.Now()))

	view := NewPollView(poll)
	assert.Equal(t, poll.ID, view.ID)
	assert.Len(t, view.Options, 2)
	// the projection carries counts only; Voters stays behind
	assert.Equal(t, 1, view.Options[0].VoteCount)
}
