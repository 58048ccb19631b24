package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPollNotFound       = errors.New("poll not found")
	ErrPollClosed         = errors.New("poll is closed")
	ErrPollExpired        = errors.New("poll has expired")
	ErrAlreadyVoted       = errors.New("already voted on this poll")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrNoOptionSelected   = errors.New("no option selected")
	ErrSingleChoicePoll   = errors.New("poll allows a single choice")
	ErrNotEnoughOptions   = errors.New("a poll needs at least two options")
)

type PollVote struct {
	UserID  string    `bson:"user_id" json:"userId"`
	VotedAt time.Time `bson:"voted_at" json:"votedAt"`
}

type PollOption struct {
	Text      string     `bson:"text" json:"text"`
	Votes     []PollVote `bson:"votes" json:"votes"`
	VoteCount int        `bson:"vote_count" json:"voteCount"`
}

// Poll is owned by a LiveEvent. A voter appears in at most one option's vote
// list unless AllowMultiple, and never more than once per option.
type Poll struct {
	ID            string       `bson:"_id" json:"id"`
	LiveEventID   string       `bson:"live_event_id" json:"liveEventId"`
	Question      string       `bson:"question" json:"question"`
	Options       []PollOption `bson:"options" json:"options"`
	TotalVotes    int          `bson:"total_votes" json:"totalVotes"`
	AllowMultiple bool         `bson:"allow_multiple" json:"allowMultiple"`
	ExpiresAt     *time.Time   `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	IsActive      bool         `bson:"is_active" json:"isActive"`
	CreatedBy     string       `bson:"created_by" json:"createdBy"`
	CreatedAt     time.Time    `bson:"created_at" json:"createdAt"`
}

type PollRepository interface {
	Create(ctx context.Context, poll *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	ListByLiveEvent(ctx context.Context, liveEventID string) ([]Poll, error)
	Update(ctx context.Context, poll *Poll) error
	TotalVotes(ctx context.Context, liveEventID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

func NewPoll(liveEventID, question string, options []string, allowMultiple bool, expiresAt *time.Time, createdBy string) (*Poll, error) {
	if len(options) < 2 {
		return nil, ErrNotEnoughOptions
	}

	opts := make([]PollOption, 0, len(options))
	for _, text := range options {
		opts = append(opts, PollOption{Text: text, Votes: []PollVote{}})
	}

	return &Poll{
		ID:            uuid.NewString(),
		LiveEventID:   liveEventID,
		Question:      question,
		Options:       opts,
		AllowMultiple: allowMultiple,
		ExpiresAt:     expiresAt,
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now(),
	}, nil
}

// HasVoted reports whether the user appears in any option's vote list.
func (p *Poll) HasVoted(userID string) bool {
	for i := range p.Options {
		for _, v := range p.Options[i].Votes {
			if v.UserID == userID {
				return true
			}
		}
	}
	return false
}

// RecordVote validates and applies a vote for the given option indexes.
// The caller serializes concurrent access per poll.
func (p *Poll) RecordVote(userID string, indexes []int, now time.Time) error {
	if !p.IsActive {
		return ErrPollClosed
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return ErrPollExpired
	}
	if len(indexes) == 0 {
		return ErrNoOptionSelected
	}
	if !p.AllowMultiple && len(indexes) > 1 {
		return ErrSingleChoicePoll
	}

	seen := make(map[int]struct{}, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(p.Options) {
			return ErrOptionOutOfRange
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
	}

	if !p.AllowMultiple && p.HasVoted(userID) {
		return ErrAlreadyVoted
	}
	if p.AllowMultiple {
		for idx := range seen {
			for _, v := range p.Options[idx].Votes {
				if v.UserID == userID {
					return ErrAlreadyVoted
				}
			}
		}
	}

	for _, idx := range indexes {
		if _, ok := seen[idx]; !ok {
			continue
		}
		delete(seen, idx)

		opt := &p.Options[idx]
		opt.Votes = append(opt.Votes, PollVote{UserID: userID, VotedAt: now})
		opt.VoteCount++
		p.TotalVotes++
	}
	return nil
}

func (p *Poll) Close() {
	p.IsActive = false
}
