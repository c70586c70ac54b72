package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"escape-server/internal/catalog"
	"escape-server/internal/model"
	"escape-server/internal/repository"
	"escape-server/internal/service"
	"escape-server/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockGameRepository — мок персистентного репозитория прогресса.
type mockGameRepository struct {
	mock.Mock
}

func (m *mockGameRepository) SaveProgress(ctx context.Context, record *model.GameRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockGameRepository) GetProgress(ctx context.Context, sessionID string) (*model.GameRecord, error) {
	args := m.Called(ctx, sessionID)
	if rec := args.Get(0); rec != nil {
		return rec.(*model.GameRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGameRepository) ListByUser(ctx context.Context, userID string) ([]*model.GameRecord, error) {
	args := m.Called(ctx, userID)
	if recs := args.Get(0); recs != nil {
		return recs.([]*model.GameRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGameRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// mockChatClient — мок свободного чата с рассказчиком.
type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) Chat(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func newTestService(t *testing.T, repo repository.GameRepository, chat service.ChatClient) *service.GameService {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return service.NewGameService(cat, nil, "", session.NewMemoryStore(), repo, chat)
}

func TestNewGameDefaultMode(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	resp, err := svc.NewGame(ctx, "u1", "", 0)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, service.ModeDefault, resp.Mode)
	assert.Equal(t, 1, resp.Status.CurrentRoom)
	assert.Equal(t, 3, resp.Status.TotalRooms)
	require.NotNil(t, resp.First)
	require.NotNil(t, resp.First.Room, "first response must carry the opening look")
	assert.Equal(t, "The Abandoned Study", resp.First.Room.Name)
}

func TestNewGameUnknownMode(t *testing.T) {
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	_, err := svc.NewGame(context.Background(), "u1", "arcade", 0)
	assert.ErrorIs(t, err, service.ErrUnknownMode)
}

func TestNewGameReplacesActiveSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	first, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)
	second, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	st, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentRoom, "the fresh session must be the active one")
}

func TestCommandWithoutSession(t *testing.T) {
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	_, err := svc.Command(context.Background(), "ghost", "look")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	_, err = svc.Status(context.Background(), "ghost")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestCommandPersistsProgress(t *testing.T) {
	ctx := context.Background()
	repo := new(mockGameRepository)
	repo.On("SaveProgress", mock.Anything, mock.MatchedBy(func(r *model.GameRecord) bool {
		return r.UserID == "u1" && r.Mode == service.ModeDefault
	})).Return(nil)

	svc := newTestService(t, repo, nil)

	_, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)

	result, err := svc.Command(ctx, "u1", "guess 007")
	require.NoError(t, err)
	assert.True(t, result.Unlocked)

	repo.AssertCalled(t, "SaveProgress", mock.Anything, mock.MatchedBy(func(r *model.GameRecord) bool {
		return r.CurrentRoom == 2 && !r.Completed
	}))
}

func TestCommandRepositoryFailureDoesNotBreakGame(t *testing.T) {
	ctx := context.Background()
	repo := new(mockGameRepository)
	repo.On("SaveProgress", mock.Anything, mock.Anything).Return(errors.New("firestore is down"))

	svc := newTestService(t, repo, nil)

	_, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)

	result, err := svc.Command(ctx, "u1", "look")
	require.NoError(t, err, "persistence failure must stay invisible to the player")
	assert.NotEmpty(t, result.Message)
}

func TestCompletedGameIsArchived(t *testing.T) {
	ctx := context.Background()
	repo := new(mockGameRepository)
	repo.On("SaveProgress", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, repo, nil)

	_, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)

	for _, pwd := range []string{"007", "Alpha-2", "Cipher3"} {
		result, err := svc.Command(ctx, "u1", "guess "+pwd)
		require.NoError(t, err)
		require.True(t, result.Unlocked, "password %q must open its room", pwd)
	}

	// Сессия удалена из хранилища, но запись о завершении сохранена
	_, err = svc.Command(ctx, "u1", "look")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	repo.AssertCalled(t, "SaveProgress", mock.Anything, mock.MatchedBy(func(r *model.GameRecord) bool {
		return r.Completed && r.CompletedAt != nil
	}))
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	records := []*model.GameRecord{{SessionID: "s1", UserID: "u1", Completed: true}}

	repo := new(mockGameRepository)
	repo.On("ListByUser", mock.Anything, "u1").Return(records, nil).Once()

	svc := newTestService(t, repo, nil)

	got, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, records, got)
	repo.AssertExpectations(t)
}

func TestChat(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		svc := newTestService(t, repository.NewNoopRepository(), nil)
		_, err := svc.Chat(context.Background(), "hello")
		assert.ErrorIs(t, err, service.ErrChatUnavailable)
	})

	t.Run("Successful reply", func(t *testing.T) {
		chat := new(mockChatClient)
		chat.On("Chat", mock.Anything, "hello").Return("greetings, stranger", nil).Once()

		svc := newTestService(t, repository.NewNoopRepository(), chat)
		reply, err := svc.Chat(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "greetings, stranger", reply)
		chat.AssertExpectations(t)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		chat := new(mockChatClient)
		chat.On("Chat", mock.Anything, "hello").Return("", errors.New("model overloaded")).Once()

		svc := newTestService(t, repository.NewNoopRepository(), chat)
		_, err := svc.Chat(context.Background(), "hello")
		assert.Error(t, err)
	})
}

func TestConcurrentCommandsSameUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	_, err := svc.NewGame(ctx, "u1", service.ModeDefault, 0)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			raw := "guess 007"
			if i%2 == 1 {
				raw = "look"
			}
			_, err := svc.Command(ctx, "u1", raw)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentRoom, "only one of the racing guesses may advance")
	assert.False(t, st.Completed)
}

func TestGeneratedModeWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, repository.NewNoopRepository(), nil)

	resp, err := svc.NewGame(ctx, "u1", service.ModeGenerated, 2)
	require.NoError(t, err, "missing generator must fall back, not fail")
	assert.Equal(t, service.ModeGenerated, resp.Mode)
	assert.Equal(t, 2, resp.Status.TotalRooms)
	require.NotNil(t, resp.First.Room)
	assert.NotEmpty(t, resp.First.Room.Name)
}
