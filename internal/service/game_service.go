package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escape-server/internal/catalog"
	"escape-server/internal/game"
	"escape-server/internal/metrics"
	"escape-server/internal/model"
	"escape-server/internal/repository"
	"escape-server/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Режимы игры.
const (
	ModeDefault   = "default"
	ModeGenerated = "generated"
)

// Ограничения на количество генерируемых комнат в одной сессии.
const (
	defaultGeneratedRooms = 3
	maxGeneratedRooms     = 10
)

// Ошибки уровня сервиса.
var (
	ErrSessionNotFound = errors.New("no active game session")
	ErrUnknownMode     = errors.New("unknown game mode")
	ErrChatUnavailable = errors.New("chat is not available")
)

// ChatClient — необязательный канал свободного общения с рассказчиком.
type ChatClient interface {
	Chat(ctx context.Context, message string) (string, error)
}

// GameService связывает каталог, генератор, хранилище сессий и
// персистентный репозиторий в один игровой фасад для HTTP-слоя.
type GameService struct {
	catalog    *catalog.Catalog
	generator  game.ContentGenerator
	credential string
	store      session.Store
	repo       repository.GameRepository
	chat       ChatClient
}

// NewGameService создает игровой сервис. generator и chat могут быть nil:
// в этом случае генерируемые сессии получают резервные комнаты, а чат
// отвечает ошибкой ErrChatUnavailable.
func NewGameService(cat *catalog.Catalog, generator game.ContentGenerator, credential string, store session.Store, repo repository.GameRepository, chat ChatClient) *GameService {
	return &GameService{
		catalog:    cat,
		generator:  generator,
		credential: credential,
		store:      store,
		repo:       repo,
		chat:       chat,
	}
}

// NewGameResponse — результат создания игры: идентификатор сессии и
// стартовый look первой комнаты.
type NewGameResponse struct {
	SessionID string               `json:"session_id"`
	Mode      string               `json:"mode"`
	Status    model.SessionStatus  `json:"status"`
	First     *model.CommandResult `json:"first"`
}

// NewGame создает новую сессию для пользователя, вытесняя прежнюю.
// Режим "default" собирает сессию из комнат каталога; "generated" строит
// roomCount комнат через генератор контента.
func (s *GameService) NewGame(ctx context.Context, userID, mode string, roomCount int) (*NewGameResponse, error) {
	if mode == "" {
		mode = ModeDefault
	}

	id := uuid.New().String()
	var (
		sess *game.Session
		err  error
	)

	switch mode {
	case ModeDefault:
		sess, err = game.NewCatalogSession(id, userID, s.catalog.Rooms())
	case ModeGenerated:
		if roomCount <= 0 {
			roomCount = defaultGeneratedRooms
		}
		if roomCount > maxGeneratedRooms {
			roomCount = maxGeneratedRooms
		}
		sess, err = game.NewGeneratedSession(ctx, id, userID, s.generator, s.credential, roomCount)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.store.Put(sess); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}
	metrics.SessionsStarted.WithLabelValues(mode).Inc()

	s.persistProgress(ctx, sess)

	first, err := sess.Process(ctx, "look")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare first room: %w", err)
	}

	log.Info().
		Str("session_id", id).
		Str("user_id", userID).
		Str("mode", mode).
		Msg("new game session created")

	return &NewGameResponse{
		SessionID: id,
		Mode:      mode,
		Status:    sess.Status(),
		First:     first,
	}, nil
}

// Command выполняет одну команду игрока в его активной сессии.
// Завершенная игра архивируется: запись о прогрессе остается в
// репозитории, сессия удаляется из хранилища.
func (s *GameService) Command(ctx context.Context, userID, raw string) (*model.CommandResult, error) {
	sess, err := s.store.GetByUser(userID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	result, err := sess.Process(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to process command: %w", err)
	}
	metrics.CommandsTotal.WithLabelValues(string(result.Command)).Inc()

	s.persistProgress(ctx, sess)

	if sess.Completed() {
		s.store.Delete(sess.ID())
		log.Info().
			Str("session_id", sess.ID()).
			Str("user_id", userID).
			Msg("game completed, session archived")
	}

	return result, nil
}

// Status возвращает прогресс активной сессии пользователя.
func (s *GameService) Status(_ context.Context, userID string) (model.SessionStatus, error) {
	sess, err := s.store.GetByUser(userID)
	if err != nil {
		return model.SessionStatus{}, ErrSessionNotFound
	}
	return sess.Status(), nil
}

// History возвращает архив игр пользователя из репозитория.
func (s *GameService) History(ctx context.Context, userID string) ([]*model.GameRecord, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game history: %w", err)
	}
	return records, nil
}

// Chat передает свободное сообщение игрока чат-модели.
func (s *GameService) Chat(ctx context.Context, message string) (string, error) {
	if s.chat == nil {
		return "", ErrChatUnavailable
	}
	reply, err := s.chat.Chat(ctx, message)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	return reply, nil
}

// persistProgress пишет снимок прогресса best-effort: ошибка записи
// логируется и не прерывает игру.
func (s *GameService) persistProgress(ctx context.Context, sess *game.Session) {
	now := time.Now().UTC()
	record := &model.GameRecord{
		SessionID:     sess.ID(),
		UserID:        sess.UserID(),
		Mode:          sess.Mode(),
		CurrentRoom:   sess.CurrentIndex() + 1,
		TotalRooms:    sess.Status().TotalRooms,
		Completed:     sess.Completed(),
		UpdatedAt:     now,
		LastCommandAt: now,
	}
	if sess.Completed() {
		record.CompletedAt = &now
	}
	if err := s.repo.SaveProgress(ctx, record); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID()).Msg("failed to persist game progress")
	}
}
