package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/configs"
	"github.com/stagelink/backend/internal/infrastructure/metrics"
	"github.com/stagelink/backend/internal/infrastructure/profanity"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

type testEnv struct {
	engine     *Engine
	registry   *ws.Registry
	router     *ws.Router
	sink       *fakeSink
	liveEvents *fakeLiveEvents
	polls      *fakePolls
	questions  *fakeQuestions
	photos     *fakePhotos
	chat       *fakeChat
	logs       *fakeInteractionLogs
	promReg    *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	registry := ws.NewRegistry()
	router := ws.NewRouter(registry, 64, nopLogger{}, m)
	t.Cleanup(router.Close)

	env := &testEnv{
		registry:   registry,
		router:     router,
		sink:       &fakeSink{},
		liveEvents: newFakeLiveEvents(),
		polls:      newFakePolls(),
		questions:  newFakeQuestions(),
		photos:     newFakePhotos(),
		chat:       newFakeChat(),
		logs:       &fakeInteractionLogs{},
		promReg:    promReg,
	}

	env.engine = New(Options{
		Repositories: Repositories{
			LiveEvents:      env.liveEvents,
			Polls:           env.polls,
			Questions:       env.questions,
			Icebreakers:     newFakeIcebreakers(),
			Photos:          env.photos,
			Chat:            env.chat,
			Events:          newFakeEvents(map[string]string{"ev-1": "org-1"}),
			InteractionLogs: env.logs,
		},
		Registry: registry,
		Router:   router,
		Sink:     env.sink,
		Filter:   profanity.NewFilter(),
		Metrics:  m,
		Logger:   nopLogger{},
	})
	return env
}

func (env *testEnv) startRoom(t *testing.T) *domain.LiveEvent {
	t.Helper()
	event, err := env.engine.StartEvent(context.Background(), "ev-1", "org-1", nil)
	require.NoError(t, err)
	return event
}

func (env *testEnv) joinedClient(t *testing.T, userID, roomID string) *ws.Client {
	t.Helper()
	c := ws.NewClient(nil, userID, "User "+userID, configs.WSConfig{
		SendBufferSize: 32,
		PingPeriod:     30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}, env.engine, nopLogger{})

	require.NoError(t, env.engine.JoinRoom(context.Background(), c, roomID))
	return c
}

// broadcastCount reads the broadcast counter for one event name.
func (env *testEnv) broadcastCount(t *testing.T, event string) float64 {
	t.Helper()
	families, err := env.promReg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "stagelink_broadcasts_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "event" && label.GetValue() == event {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestStartEventConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.StartEvent(ctx, "ev-1", "someone-else", nil)
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	event, err := env.engine.StartEvent(ctx, "ev-1", "org-1", nil)
	require.NoError(t, err)
	assert.True(t, event.IsLive())

	_, err = env.engine.StartEvent(ctx, "ev-1", "org-1", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyLive)

	_, err = env.engine.StartEvent(ctx, "ev-unknown", "org-1", nil)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEndEventFreezesRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)

	c := env.joinedClient(t, "u1", room.ID)
	_, err := env.engine.SendChat(ctx, c, "hello", "text")
	require.NoError(t, err)

	ended, err := env.engine.EndEvent(ctx, "ev-1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LiveEventEnded, ended.Status)
	assert.Equal(t, int64(1), ended.Metrics.TotalInteractions)
	assert.Equal(t, 0, ended.Metrics.ActiveUsers)

	_, err = env.engine.SendChat(ctx, c, "too late", "text")
	assert.ErrorIs(t, err, domain.ErrEventEnded)

	_, err = env.engine.EndEvent(ctx, "ev-1", "org-1")
	assert.ErrorIs(t, err, domain.ErrEventEnded)
}

func TestVotePollConflictAndPersistence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	poll, err := env.engine.CreatePoll(ctx, "ev-1", "org-1", CreatePollInput{
		Question: "Lunch?",
		Options:  []string{"pizza", "sushi"},
	})
	require.NoError(t, err)

	require.NoError(t, env.engine.VotePoll(ctx, c, poll.ID, []int{1}))

	stored, err := env.polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalVotes)
	assert.Equal(t, 1, stored.Options[1].VoteCount)

	err = env.engine.VotePoll(ctx, c, poll.ID, []int{0})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	// conflict changed nothing
	stored, err = env.polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalVotes)

	assert.Equal(t, float64(1), env.broadcastCount(t, ws.PollVote))
}

func TestVotePollStoreFailureNotBroadcast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	poll, err := env.engine.CreatePoll(ctx, "ev-1", "org-1", CreatePollInput{
		Question: "Lunch?",
		Options:  []string{"pizza", "sushi"},
	})
	require.NoError(t, err)

	env.polls.failUpdate = true
	err = env.engine.VotePoll(ctx, c, poll.ID, []int{0})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	code, retry := ErrorCode(err)
	assert.Equal(t, ws.CodeStoreFailed, code)
	assert.True(t, retry)

	assert.Equal(t, float64(0), env.broadcastCount(t, ws.PollVote))

	stored, err := env.polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalVotes)
}

func TestCreatePollRequiresOrganizer(t *testing.T) {
	env := newTestEnv(t)
	env.startRoom(t)

	_, err := env.engine.CreatePoll(context.Background(), "ev-1", "not-org", CreatePollInput{
		Question: "q",
		Options:  []string{"a", "b"},
	})
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)
}

func TestClosePollStopsVoting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	poll, err := env.engine.CreatePoll(ctx, "ev-1", "org-1", CreatePollInput{
		Question: "Lunch?",
		Options:  []string{"pizza", "sushi"},
	})
	require.NoError(t, err)

	_, err = env.engine.ClosePoll(ctx, "ev-1", "u1", poll.ID)
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	closed, err := env.engine.ClosePoll(ctx, "ev-1", "org-1", poll.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.Equal(t, float64(1), env.broadcastCount(t, ws.PollClosed))

	err = env.engine.VotePoll(ctx, c, poll.ID, []int{0})
	assert.ErrorIs(t, err, domain.ErrPollClosed)

	_, err = env.engine.ClosePoll(ctx, "ev-1", "org-1", poll.ID)
	assert.ErrorIs(t, err, domain.ErrPollClosed)
}

func TestDismissQuestionOrganizerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	asker := env.joinedClient(t, "u1", room.ID)

	question, err := env.engine.AskQuestion(ctx, asker, "Is lunch free?")
	require.NoError(t, err)

	err = env.engine.DismissQuestion(ctx, "ev-1", "u1", question.ID)
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	require.NoError(t, env.engine.DismissQuestion(ctx, "ev-1", "org-1", question.ID))

	stored, _ := env.questions.GetByID(ctx, question.ID)
	assert.Equal(t, domain.QuestionDismissed, stored.Status)
	assert.Equal(t, float64(1), env.broadcastCount(t, ws.QADismissed))
}

func TestUpvoteToggleRoundTrips(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	asker := env.joinedClient(t, "u1", room.ID)
	voter := env.joinedClient(t, "u2", room.ID)

	question, err := env.engine.AskQuestion(ctx, asker, "Will recordings be shared?")
	require.NoError(t, err)

	require.NoError(t, env.engine.UpvoteQuestion(ctx, voter, question.ID))
	stored, _ := env.questions.GetByID(ctx, question.ID)
	assert.Equal(t, 1, stored.UpvoteCount)

	require.NoError(t, env.engine.UpvoteQuestion(ctx, voter, question.ID))
	stored, _ = env.questions.GetByID(ctx, question.ID)
	assert.Equal(t, 0, stored.UpvoteCount)
	assert.Empty(t, stored.Upvotes)
}

func TestAnswerQuestionOrganizerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	asker := env.joinedClient(t, "u1", room.ID)

	question, err := env.engine.AskQuestion(ctx, asker, "Any discount codes?")
	require.NoError(t, err)

	err = env.engine.AnswerQuestion(ctx, asker, question.ID, "ANSWER")
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	organizer := env.joinedClient(t, "org-1", room.ID)
	require.NoError(t, env.engine.AnswerQuestion(ctx, organizer, question.ID, "Yes, LIVE10."))

	stored, _ := env.questions.GetByID(ctx, question.ID)
	assert.Equal(t, domain.QuestionAnswered, stored.Status)
}

func TestSharePhotoModerationGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	settings := domain.DefaultLiveEventSettings()
	settings.ModerationRequired = true
	room, err := env.engine.StartEvent(ctx, "ev-1", "org-1", &settings)
	require.NoError(t, err)

	uploader := env.joinedClient(t, "u1", room.ID)

	photo, err := env.engine.SharePhoto(ctx, uploader, SharePhotoInput{
		ImageURL: "https://cdn.example.com/pic.jpg",
		Caption:  "crowd",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhotoPending, photo.Status)

	// pending photo is not broadcast and cannot be liked
	assert.Equal(t, float64(0), env.broadcastCount(t, ws.NewPhoto))
	assert.ErrorIs(t, env.engine.LikePhoto(ctx, uploader, photo.ID), domain.ErrPhotoNotFound)

	approved, err := env.engine.ModeratePhoto(ctx, "ev-1", "org-1", photo.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.PhotoApproved, approved.Status)
	assert.Equal(t, float64(1), env.broadcastCount(t, ws.NewPhoto))

	_, err = env.engine.ModeratePhoto(ctx, "ev-1", "org-1", photo.ID, false)
	assert.ErrorIs(t, err, domain.ErrPhotoAlreadyHandled)

	require.NoError(t, env.engine.LikePhoto(ctx, uploader, photo.ID))
	stored, _ := env.photos.GetByID(ctx, photo.ID)
	assert.Equal(t, 1, stored.LikeCount)
}

func TestPendingPhotosQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	settings := domain.DefaultLiveEventSettings()
	settings.ModerationRequired = true
	room, err := env.engine.StartEvent(ctx, "ev-1", "org-1", &settings)
	require.NoError(t, err)

	uploader := env.joinedClient(t, "u1", room.ID)
	photo, err := env.engine.SharePhoto(ctx, uploader, SharePhotoInput{
		ImageURL: "https://cdn.example.com/pic.jpg",
	})
	require.NoError(t, err)

	_, err = env.engine.PendingPhotos(ctx, "ev-1", "u1")
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	queue, err := env.engine.PendingPhotos(ctx, "ev-1", "org-1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, photo.ID, queue[0].ID)

	_, err = env.engine.ModeratePhoto(ctx, "ev-1", "org-1", photo.ID, true)
	require.NoError(t, err)

	queue, err = env.engine.PendingPhotos(ctx, "ev-1", "org-1")
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestInteractionHistoryOrganizerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)

	require.NoError(t, env.logs.Log(ctx, domain.NewInteractionLog(room.ID, "u1", domain.ActionChatSent, nil)))
	require.NoError(t, env.logs.Log(ctx, domain.NewInteractionLog(room.ID, "u2", domain.ActionPollVoted, nil)))
	require.NoError(t, env.logs.Log(ctx, domain.NewInteractionLog("other-room", "u3", domain.ActionChatSent, nil)))

	_, err := env.engine.InteractionHistory(ctx, "ev-1", "u1", 0)
	assert.ErrorIs(t, err, domain.ErrNotOrganizer)

	logs, err := env.engine.InteractionHistory(ctx, "ev-1", "org-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// newest first
	assert.Equal(t, domain.ActionPollVoted, logs[0].Action)

	logs, err = env.engine.InteractionHistory(ctx, "ev-1", "org-1", 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSendChatProfanityAutoHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	clean, err := env.engine.SendChat(ctx, c, "great talk!", "text")
	require.NoError(t, err)
	assert.True(t, clean.IsVisible)
	assert.Equal(t, float64(1), env.broadcastCount(t, ws.ChatMessage))

	flagged, err := env.engine.SendChat(ctx, c, "this is bullshit", "text")
	require.NoError(t, err)
	assert.False(t, flagged.IsVisible)
	// hidden message went only to the sender, not the room
	assert.Equal(t, float64(1), env.broadcastCount(t, ws.ChatMessage))
}

func TestHideMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	message, err := env.engine.SendChat(ctx, c, "buy my coins", "text")
	require.NoError(t, err)

	require.NoError(t, env.engine.HideMessage(ctx, "ev-1", "org-1", message.ID, "spam"))

	stored, _ := env.chat.GetByID(ctx, message.ID)
	assert.False(t, stored.IsVisible)
	assert.Equal(t, "org-1", stored.HiddenBy)
}

func TestJoinRoomRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)

	c := env.joinedClient(t, "u1", room.ID)
	assert.Equal(t, 1, env.registry.Count(room.ID))

	err := env.engine.JoinRoom(ctx, c, "another-room")
	assert.ErrorIs(t, err, domain.ErrLiveEventNotFound)

	require.NoError(t, env.engine.LeaveRoom(ctx, c))
	assert.Equal(t, 0, env.registry.Count(room.ID))

	assert.ErrorIs(t, env.engine.LeaveRoom(ctx, c), ws.ErrNotJoined)
}

func TestDisconnectCleansSession(t *testing.T) {
	env := newTestEnv(t)
	room := env.startRoom(t)

	c := env.joinedClient(t, "u1", room.ID)
	require.Equal(t, 1, env.registry.Count(room.ID))

	env.engine.HandleDisconnect(c)
	assert.Equal(t, 0, env.registry.Count(room.ID))

	// a second disconnect for the same connection is harmless
	env.engine.HandleDisconnect(c)
}

func TestInteractionRecordsFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room := env.startRoom(t)
	c := env.joinedClient(t, "u1", room.ID)

	_, err := env.engine.SendChat(ctx, c, "hello", "text")
	require.NoError(t, err)

	actions := env.sink.actions()
	assert.Contains(t, actions, domain.ActionEventStarted)
	assert.Contains(t, actions, domain.ActionRoomJoined)
	assert.Contains(t, actions, domain.ActionChatSent)
}
