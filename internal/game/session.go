package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"escape-server/internal/model"
)

// Ошибки нарушения контракта вызывающей стороной. В отличие от сбоев
// генерации они не маскируются и отдаются наружу как есть.
var (
	ErrNoRooms         = errors.New("session requires at least one room")
	ErrSessionNotReady = errors.New("session is not initialized")
)

// Session ведет одного игрока через упорядоченную последовательность комнат.
// Список движков фиксируется при создании; текущий индекс только растет и
// никогда не выходит за пределы списка. Команды одной сессии выполняются
// строго по одной: mu удерживается на все время обработки, включая
// ожидание генерации следующей комнаты.
type Session struct {
	mu       sync.Mutex
	id       string
	userID   string
	mode     string
	engines  []*RoomEngine
	current  int
	unlocked []bool
	finished bool
}

// NewCatalogSession создает сессию по готовым комнатам каталога.
// Первая комната доступна сразу, генерация не используется.
func NewCatalogSession(id, userID string, rooms []*model.Room) (*Session, error) {
	if len(rooms) == 0 {
		return nil, ErrNoRooms
	}

	total := len(rooms)
	engines := make([]*RoomEngine, total)
	for i, room := range rooms {
		engines[i] = NewCatalogEngine(room, i+1, total)
	}

	return newSession(id, userID, "default", engines), nil
}

// NewGeneratedSession создает сессию из totalRooms генерируемых комнат и
// синхронно получает первую, чтобы сессия была играбельна сразу после
// создания. Отсутствующий генератор или пустой credential не являются
// ошибкой: первая же комната будет резервной.
func NewGeneratedSession(ctx context.Context, id, userID string, gen ContentGenerator, credential string, totalRooms int) (*Session, error) {
	if totalRooms < 1 {
		return nil, ErrNoRooms
	}

	engines := make([]*RoomEngine, totalRooms)
	var prev *RoomEngine
	for i := 0; i < totalRooms; i++ {
		engines[i] = NewGeneratedEngine(gen, credential, i+1, totalRooms, prev)
		prev = engines[i]
	}

	s := newSession(id, userID, "generated", engines)
	s.engines[0].Ensure(ctx)
	return s, nil
}

func newSession(id, userID, mode string, engines []*RoomEngine) *Session {
	unlocked := make([]bool, len(engines))
	unlocked[0] = true
	return &Session{
		id:       id,
		userID:   userID,
		mode:     mode,
		engines:  engines,
		unlocked: unlocked,
	}
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string { return s.id }

// UserID возвращает владельца сессии.
func (s *Session) UserID() string { return s.userID }

// Mode возвращает режим сессии: "default" или "generated".
func (s *Session) Mode() string { return s.mode }

// CurrentIndex возвращает 0-based индекс текущей комнаты.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Completed сообщает, пройдена ли игра.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// CurrentRoom возвращает определение текущей комнаты, получая его при
// необходимости.
func (s *Session) CurrentRoom(ctx context.Context) (*model.Room, error) {
	if len(s.engines) == 0 {
		return nil, ErrSessionNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[s.current].Ensure(ctx), nil
}

// Process разбирает и выполняет одну команду игрока. Параллельные вызовы
// для одной сессии сериализуются: вторая команда ждет завершения первой,
// перестановок нет. Правильный пароль продвигает игрока на следующую
// комнату и сразу получает ее определение.
func (s *Session) Process(ctx context.Context, raw string) (*model.CommandResult, error) {
	if len(s.engines) == 0 {
		return nil, ErrSessionNotReady
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := ParseCommand(raw)

	switch cmd.Type {
	case model.CommandStatus:
		return s.statusResult(), nil
	case model.CommandNewGame:
		return &model.CommandResult{
			Command: model.CommandNewGame,
			Message: "A game is already in progress. Finish it or start a new one from the lobby.",
		}, nil
	}

	result := s.engines[s.current].Process(ctx, cmd)

	if result.Unlocked && !result.GameCompleted && s.current < len(s.engines)-1 {
		s.current++
		s.unlocked[s.current] = true
		// Сразу получаем новую комнату, чтобы следующий look игрока не ждал
		// генерацию.
		nextRoom := s.engines[s.current].Ensure(ctx)
		result.NextRoom = &model.NextRoomView{ID: nextRoom.ID, Name: nextRoom.Name}
		result.Message += fmt.Sprintf(" You step into the next room: %s.", nextRoom.Name)
	}

	if result.GameCompleted {
		s.finished = true
	}

	return result, nil
}

// Status возвращает прогресс сессии. Процент отражает количество
// *начатых* комнат: завершение последней комнаты само по себе не дает
// 100%, это поведение зафиксировано намеренно (см. DESIGN.md).
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// statusLocked собирает снимок прогресса; вызывается под mu.
func (s *Session) statusLocked() model.SessionStatus {
	total := len(s.engines)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(s.current) / float64(total) * 100))
	}
	return model.SessionStatus{
		CurrentRoom:     s.current + 1,
		TotalRooms:      total,
		ProgressPercent: percent,
		Completed:       s.finished,
		UnlockedRooms:   append([]bool(nil), s.unlocked...),
	}
}

func (s *Session) statusResult() *model.CommandResult {
	st := s.statusLocked()
	msg := fmt.Sprintf("Room %d of %d (%d%% of the game).", st.CurrentRoom, st.TotalRooms, st.ProgressPercent)
	if st.Completed {
		msg = fmt.Sprintf("Game complete. You escaped all %d rooms!", st.TotalRooms)
	}
	return &model.CommandResult{
		Command:       model.CommandStatus,
		Message:       msg,
		GameCompleted: st.Completed,
	}
}
