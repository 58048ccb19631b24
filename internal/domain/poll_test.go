package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoll(t *testing.T, allowMultiple bool) *Poll {
	t.Helper()
	poll, err := NewPoll("room-1", "Favourite color?", []string{"red", "green", "blue"}, allowMultiple, nil, "org-1")
	require.NoError(t, err)
	return poll
}

func TestNewPollRequiresTwoOptions(t *testing.T) {
	_, err := NewPoll("room-1", "q", []string{"only one"}, false, nil, "org-1")
	assert.ErrorIs(t, err, ErrNotEnoughOptions)
}

func TestRecordVoteSingleChoice(t *testing.T) {
	poll := newTestPoll(t, false)
	now := time.Now()

	require.NoError(t, poll.RecordVote("u1", []int{0}, now))
	assert.Equal(t, 1, poll.Options[0].VoteCount)
	assert.Equal(t, 1, poll.TotalVotes)

	err := poll.RecordVote("u1", []int{1}, now)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, 1, poll.TotalVotes)

	err = poll.RecordVote("u2", []int{0, 1}, now)
	assert.ErrorIs(t, err, ErrSingleChoicePoll)

	err = poll.RecordVote("u2", []int{3}, now)
	assert.ErrorIs(t, err, ErrOptionOutOfRange)

	err = poll.RecordVote("u2", nil, now)
	assert.ErrorIs(t, err, ErrNoOptionSelected)
}

func TestRecordVoteMultipleChoice(t *testing.T) {
	poll := newTestPoll(t, true)
	now := time.Now()

	require.NoError(t, poll.RecordVote("u1", []int{0, 2}, now))
	assert.Equal(t, 1, poll.Options[0].VoteCount)
	assert.Equal(t, 1, poll.Options[2].VoteCount)
	assert.Equal(t, 2, poll.TotalVotes)

	// duplicate indexes in one request count once
	require.NoError(t, poll.RecordVote("u2", []int{1, 1}, now))
	assert.Equal(t, 1, poll.Options[1].VoteCount)
	assert.Equal(t, 3, poll.TotalVotes)

	err := poll.RecordVote("u1", []int{0}, now)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestRecordVoteClosedAndExpired(t *testing.T) {
	poll := newTestPoll(t, false)
	poll.Close()
	assert.ErrorIs(t, poll.RecordVote("u1", []int{0}, time.Now()), ErrPollClosed)

	expired := newTestPoll(t, false)
	past := time.Now().Add(-time.Minute)
	expired.ExpiresAt = &past
	assert.ErrorIs(t, expired.RecordVote("u1", []int{0}, time.Now()), ErrPollExpired)
}

func TestVoteCountConsistency(t *testing.T) {
	poll := newTestPoll(t, false)
	now := time.Now()

	voters := []string{"u1", "u2", "u3", "u4", "u5"}
	for i, v := range voters {
		require.NoError(t, poll.RecordVote(v, []int{i % 3}, now))
	}

	sum := 0
	for _, opt := range poll.Options {
		assert.Equal(t, len(opt.Votes), opt.VoteCount)
		sum += opt.VoteCount
	}
	assert.Equal(t, sum, poll.TotalVotes)
}

// Concurrent votes serialized by an external lock never lose an update.
func TestRecordVoteSerialized(t *testing.T) {
	poll := newTestPoll(t, false)
	now := time.Now()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			_ = poll.RecordVote(string(rune('a'+n%26))+string(rune('0'+n/26)), []int{n % 3}, now)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, poll.TotalVotes)
	sum := 0
	for _, opt := range poll.Options {
		sum += opt.VoteCount
	}
	assert.Equal(t, 50, sum)
}
