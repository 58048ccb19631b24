package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
)

var errStoreDown = errors.New("store down")

type nopLogger struct{}

func (nopLogger) Init() {}

func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

type recordedInteraction struct {
	LiveEventID string
	UserID      string
	Action      domain.InteractionAction
}

type fakeSink struct {
	mu      sync.Mutex
	records []recordedInteraction
}

func (s *fakeSink) Record(liveEventID, userID string, action domain.InteractionAction, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recordedInteraction{liveEventID, userID, action})
}

func (s *fakeSink) actions() []domain.InteractionAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InteractionAction, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Action)
	}
	return out
}

// Fake repositories return copies, like a driver decoding documents.

type fakeLiveEvents struct {
	mu         sync.Mutex
	byID       map[string]domain.LiveEvent
	failUpdate bool
}

func newFakeLiveEvents() *fakeLiveEvents {
	return &fakeLiveEvents{byID: make(map[string]domain.LiveEvent)}
}

func (f *fakeLiveEvents) Create(_ context.Context, event *domain.LiveEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[event.ID] = *event
	return nil
}

func (f *fakeLiveEvents) GetByID(_ context.Context, id string) (*domain.LiveEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrLiveEventNotFound
	}
	return &event, nil
}

func (f *fakeLiveEvents) GetByEventID(_ context.Context, eventID string) (*domain.LiveEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.LiveEvent
	for id := range f.byID {
		event := f.byID[id]
		if event.EventID != eventID {
			continue
		}
		if latest == nil || event.CreatedAt.After(latest.CreatedAt) {
			latest = &event
		}
	}
	if latest == nil {
		return nil, domain.ErrLiveEventNotFound
	}
	return latest, nil
}

func (f *fakeLiveEvents) ListLive(_ context.Context) ([]domain.LiveEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []domain.LiveEvent
	for _, event := range f.byID {
		if event.Status == domain.LiveEventLive {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeLiveEvents) Update(_ context.Context, event *domain.LiveEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errStoreDown
	}
	if _, ok := f.byID[event.ID]; !ok {
		return domain.ErrLiveEventNotFound
	}
	f.byID[event.ID] = *event
	return nil
}

func (f *fakeLiveEvents) EnsureIndexes(context.Context) error { return nil }

type fakePolls struct {
	mu         sync.Mutex
	byID       map[string]domain.Poll
	failUpdate bool
}

func newFakePolls() *fakePolls {
	return &fakePolls{byID: make(map[string]domain.Poll)}
}

func (f *fakePolls) Create(_ context.Context, poll *domain.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[poll.ID] = *poll
	return nil
}

func (f *fakePolls) GetByID(_ context.Context, id string) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	poll, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return &poll, nil
}

func (f *fakePolls) ListByLiveEvent(_ context.Context, liveEventID string) ([]domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var polls []domain.Poll
	for _, poll := range f.byID {
		if poll.LiveEventID == liveEventID {
			polls = append(polls, poll)
		}
	}
	return polls, nil
}

func (f *fakePolls) Update(_ context.Context, poll *domain.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errStoreDown
	}
	if _, ok := f.byID[poll.ID]; !ok {
		return domain.ErrPollNotFound
	}
	f.byID[poll.ID] = *poll
	return nil
}

func (f *fakePolls) TotalVotes(_ context.Context, liveEventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, poll := range f.byID {
		if poll.LiveEventID == liveEventID {
			total += int64(poll.TotalVotes)
		}
	}
	return total, nil
}

func (f *fakePolls) EnsureIndexes(context.Context) error { return nil }

type fakeQuestions struct {
	mu   sync.Mutex
	byID map[string]domain.Question
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{byID: make(map[string]domain.Question)}
}

func (f *fakeQuestions) Create(_ context.Context, q *domain.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[q.ID] = *q
	return nil
}

func (f *fakeQuestions) GetByID(_ context.Context, id string) (*domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	return &q, nil
}

func (f *fakeQuestions) ListByLiveEvent(_ context.Context, liveEventID string) ([]domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var questions []domain.Question
	for _, q := range f.byID {
		if q.LiveEventID == liveEventID {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (f *fakeQuestions) Update(_ context.Context, q *domain.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	f.byID[q.ID] = *q
	return nil
}

func (f *fakeQuestions) CountByLiveEvent(_ context.Context, liveEventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, q := range f.byID {
		if q.LiveEventID == liveEventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeQuestions) EnsureIndexes(context.Context) error { return nil }

type fakeIcebreakers struct {
	mu   sync.Mutex
	byID map[string]domain.Icebreaker
}

func newFakeIcebreakers() *fakeIcebreakers {
	return &fakeIcebreakers{byID: make(map[string]domain.Icebreaker)}
}

func (f *fakeIcebreakers) Create(_ context.Context, i *domain.Icebreaker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[i.ID] = *i
	return nil
}

func (f *fakeIcebreakers) GetByID(_ context.Context, id string) (*domain.Icebreaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrIcebreakerNotFound
	}
	return &i, nil
}

func (f *fakeIcebreakers) ListByLiveEvent(_ context.Context, liveEventID string) ([]domain.Icebreaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Icebreaker
	for _, i := range f.byID {
		if i.LiveEventID == liveEventID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeIcebreakers) Update(_ context.Context, i *domain.Icebreaker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[i.ID]; !ok {
		return domain.ErrIcebreakerNotFound
	}
	f.byID[i.ID] = *i
	return nil
}

func (f *fakeIcebreakers) EnsureIndexes(context.Context) error { return nil }

type fakePhotos struct {
	mu   sync.Mutex
	byID map[string]domain.LivePhoto
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{byID: make(map[string]domain.LivePhoto)}
}

func (f *fakePhotos) Create(_ context.Context, p *domain.LivePhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID] = *p
	return nil
}

func (f *fakePhotos) GetByID(_ context.Context, id string) (*domain.LivePhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrPhotoNotFound
	}
	return &p, nil
}

func (f *fakePhotos) listByStatus(liveEventID string, status domain.PhotoStatus) []domain.LivePhoto {
	var out []domain.LivePhoto
	for _, p := range f.byID {
		if p.LiveEventID == liveEventID && p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePhotos) ListApproved(_ context.Context, liveEventID string) ([]domain.LivePhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listByStatus(liveEventID, domain.PhotoApproved), nil
}

func (f *fakePhotos) ListPending(_ context.Context, liveEventID string) ([]domain.LivePhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listByStatus(liveEventID, domain.PhotoPending), nil
}

func (f *fakePhotos) Update(_ context.Context, p *domain.LivePhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return domain.ErrPhotoNotFound
	}
	f.byID[p.ID] = *p
	return nil
}

func (f *fakePhotos) CountByLiveEvent(_ context.Context, liveEventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byID {
		if p.LiveEventID == liveEventID {
			n++
		}
	}
	return n, nil
}

func (f *fakePhotos) EnsureIndexes(context.Context) error { return nil }

type fakeChat struct {
	mu   sync.Mutex
	byID map[string]domain.ChatMessage
}

func newFakeChat() *fakeChat {
	return &fakeChat{byID: make(map[string]domain.ChatMessage)}
}

func (f *fakeChat) Create(_ context.Context, m *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeChat) GetByID(_ context.Context, id string) (*domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return &m, nil
}

func (f *fakeChat) ListVisible(_ context.Context, liveEventID string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range f.byID {
		if m.LiveEventID == liveEventID && m.IsVisible && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChat) Update(_ context.Context, m *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[m.ID]; !ok {
		return domain.ErrMessageNotFound
	}
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeChat) CountByLiveEvent(_ context.Context, liveEventID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.byID {
		if m.LiveEventID == liveEventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeChat) EnsureIndexes(context.Context) error { return nil }

type fakeInteractionLogs struct {
	mu      sync.Mutex
	records []domain.InteractionLog
}

func (f *fakeInteractionLogs) Log(_ context.Context, log *domain.InteractionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *log)
	return nil
}

func (f *fakeInteractionLogs) GetByLiveEventID(_ context.Context, liveEventID string, limit int) ([]domain.InteractionLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InteractionLog
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if f.records[i].LiveEventID == liveEventID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeInteractionLogs) DeleteOlderThan(_ context.Context, before time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.records[:0]
	for _, r := range f.records {
		if !r.Timestamp.Before(before) {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeInteractionLogs) EnsureIndexes(context.Context) error { return nil }

type fakeEvents struct {
	organizers map[string]string // eventID -> organizer userID
}

func newFakeEvents(organizers map[string]string) *fakeEvents {
	return &fakeEvents{organizers: organizers}
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*domain.Event, error) {
	organizer, ok := f.organizers[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &domain.Event{
		ID:          id,
		Title:       "Test Event",
		OrganizerID: organizer,
		StartsAt:    time.Now(),
		CreatedAt:   time.Now(),
	}, nil
}

func (f *fakeEvents) IsOrganizer(_ context.Context, eventID, userID string) (bool, error) {
	return f.organizers[eventID] == userID, nil
}
