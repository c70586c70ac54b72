package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"escape-server/internal/metrics"
	"escape-server/internal/model"
	"escape-server/pkg/ai"

	"github.com/rs/zerolog/log"
)

// ContentGenerator — контракт внешнего генератора контента. Реализация
// (pkg/ai) может отвечать сколь угодно долго и возвращать произвольный
// текст; движок обязан пережить любой его сбой.
type ContentGenerator interface {
	GenerateRoomContent(ctx context.Context, req model.GenerateRoomRequest) (string, error)
}

// ResolutionState описывает фазу получения определения комнаты.
type ResolutionState string

// Состояния движка комнаты.
const (
	StateUnresolved ResolutionState = "unresolved"
	StateResolving  ResolutionState = "resolving"
	StateResolved   ResolutionState = "resolved"
)

// RoomEngine владеет жизненным циклом одной комнаты: ленивой генерацией
// либо загрузкой из каталога, восстановлением после сбоев генератора и
// обработкой команд игрока. Определение комнаты, однажды полученное,
// больше не пересоздается; резервная комната тоже считается финальной.
type RoomEngine struct {
	mu       sync.Mutex
	room     *model.Room
	inflight chan struct{}

	gen            ContentGenerator
	credential     string
	seq            int // 1-based, 0 для одиночной комнаты
	total          int
	prev           *RoomEngine
	fallbackReason string
}

// NewCatalogEngine создает движок поверх готового определения из каталога.
// Такой движок сразу находится в состоянии resolved.
func NewCatalogEngine(room *model.Room, seq, total int) *RoomEngine {
	r := room.Clone()
	r.SequenceIndex = seq
	r.TotalInSequence = total
	return &RoomEngine{room: r, seq: seq, total: total}
}

// NewGeneratedEngine создает движок, который получит определение от
// генератора при первом обращении. prev указывает на движок предыдущей
// комнаты для связного продолжения сюжета (nil для первой комнаты).
func NewGeneratedEngine(gen ContentGenerator, credential string, seq, total int, prev *RoomEngine) *RoomEngine {
	return &RoomEngine{gen: gen, credential: credential, seq: seq, total: total, prev: prev}
}

// State возвращает текущую фазу получения определения.
func (e *RoomEngine) State() ResolutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.room != nil:
		return StateResolved
	case e.inflight != nil:
		return StateResolving
	default:
		return StateUnresolved
	}
}

// Room возвращает закешированное определение или nil, если комната еще
// не получена.
func (e *RoomEngine) Room() *model.Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room
}

// FallbackReason возвращает причину синтеза резервной комнаты
// (пустая строка, если резерв не использовался). Для диагностики.
func (e *RoomEngine) FallbackReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fallbackReason
}

// Ensure гарантирует наличие определения комнаты и возвращает его.
// Повторные вызовы после успешного получения бесплатны. Конкурентные
// вызовы во время генерации не запускают вторую попытку: они ждут
// завершения текущей и получают ее результат (single-flight).
func (e *RoomEngine) Ensure(ctx context.Context) *model.Room {
	e.mu.Lock()
	if e.room != nil {
		room := e.room
		e.mu.Unlock()
		return room
	}
	if e.inflight != nil {
		done := e.inflight
		e.mu.Unlock()
		<-done
		e.mu.Lock()
		room := e.room
		e.mu.Unlock()
		return room
	}
	done := make(chan struct{})
	e.inflight = done
	e.mu.Unlock()

	room, reason := e.resolve(ctx)

	e.mu.Lock()
	e.room = room
	e.fallbackReason = reason
	e.inflight = nil
	e.mu.Unlock()
	close(done)

	return room
}

// resolve выполняет одну попытку генерации. Никогда не оставляет движок
// без комнаты: любой сбой превращается в детерминированную резервную
// комнату с зафиксированной причиной.
func (e *RoomEngine) resolve(ctx context.Context) (*model.Room, string) {
	if e.gen == nil || e.credential == "" {
		log.Warn().Int("room", e.seq).Str("reason", fallbackMissingCredential).
			Msg("synthesizing fallback room")
		metrics.GenerationFallbacks.WithLabelValues(fallbackMissingCredential).Inc()
		return fallbackRoom(e.seq, e.total), fallbackMissingCredential
	}

	req := model.GenerateRoomRequest{
		Credential:      e.credential,
		SequenceIndex:   e.seq,
		TotalInSequence: e.total,
	}
	if e.prev != nil {
		if prevRoom := e.prev.Room(); prevRoom != nil {
			req.PrevRoomName = prevRoom.Name
			req.PrevRoomBackground = prevRoom.Background
		}
	}

	text, err := e.gen.GenerateRoomContent(ctx, req)
	if err != nil {
		log.Error().Err(err).Int("room", e.seq).Str("reason", fallbackGenerationFailed).
			Msg("synthesizing fallback room")
		metrics.GenerationFallbacks.WithLabelValues(fallbackGenerationFailed).Inc()
		return fallbackRoom(e.seq, e.total), fallbackGenerationFailed
	}

	room, err := ai.ParseRoomResponse(text)
	if err != nil {
		log.Error().Err(err).Int("room", e.seq).Str("reason", fallbackMalformedContent).
			Msg("synthesizing fallback room")
		metrics.GenerationFallbacks.WithLabelValues(fallbackMalformedContent).Inc()
		return fallbackRoom(e.seq, e.total), fallbackMalformedContent
	}

	room.SequenceIndex = e.seq
	room.TotalInSequence = e.total
	return room, ""
}

// Process обрабатывает одну команду игрока против комнаты этого движка.
// Перед обработкой всегда вызывается Ensure.
func (e *RoomEngine) Process(ctx context.Context, cmd Command) *model.CommandResult {
	room := e.Ensure(ctx)

	switch cmd.Type {
	case model.CommandLook:
		return e.look(room)
	case model.CommandInspect:
		return e.inspect(room, cmd.Argument)
	case model.CommandHint:
		return e.hint(room)
	case model.CommandGuess:
		return e.guess(room, cmd.Argument)
	default:
		return unknownCommandResult()
	}
}

func (e *RoomEngine) look(room *model.Room) *model.CommandResult {
	var b strings.Builder
	fmt.Fprintf(&b, "You are in %s", room.Name)
	if room.SequenceIndex > 0 && room.TotalInSequence > 0 {
		fmt.Fprintf(&b, " (room %d of %d)", room.SequenceIndex, room.TotalInSequence)
	}
	b.WriteString(".")
	if room.Background != "" {
		b.WriteString(" " + room.Background)
	}
	names := room.ObjectNames()
	if len(names) > 0 {
		fmt.Fprintf(&b, " You see: %s.", strings.Join(names, ", "))
	}

	return &model.CommandResult{
		Command: model.CommandLook,
		Message: b.String(),
		Room: &model.RoomView{
			Name:            room.Name,
			SequenceIndex:   room.SequenceIndex,
			TotalInSequence: room.TotalInSequence,
			Background:      room.Background,
			Objects:         names,
		},
	}
}

func (e *RoomEngine) inspect(room *model.Room, target string) *model.CommandResult {
	if strings.TrimSpace(target) == "" {
		return &model.CommandResult{
			Command: model.CommandInspect,
			Message: "Inspect what? Name one of the objects you can see.",
		}
	}

	obj := room.FindObject(target)
	if obj == nil {
		return &model.CommandResult{
			Command:  model.CommandInspect,
			Message:  fmt.Sprintf("You find no %q here.", target),
			NotFound: target,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", obj.Name, obj.Description)
	if obj.Puzzle != "" {
		fmt.Fprintf(&b, " Puzzle: %s", obj.Puzzle)
	}
	if len(obj.Details) > 0 {
		fmt.Fprintf(&b, " You notice: %s", strings.Join(obj.Details, "; "))
	}

	return &model.CommandResult{
		Command: model.CommandInspect,
		Message: b.String(),
		Object: &model.ObjectView{
			Name:        obj.Name,
			Description: obj.Description,
			Puzzle:      obj.Puzzle,
			Unlocked:    obj.Unlocked,
			Details:     append([]string(nil), obj.Details...),
		},
	}
}

func (e *RoomEngine) hint(room *model.Room) *model.CommandResult {
	if len(room.Objects) == 0 {
		return &model.CommandResult{
			Command: model.CommandHint,
			Message: "No hints available in this room.",
		}
	}

	obj := room.Objects[rand.Intn(len(room.Objects))]
	hint := ""
	switch {
	case len(obj.Details) > 0:
		hint = obj.Details[rand.Intn(len(obj.Details))]
	case room.Hint != "":
		hint = room.Hint
	default:
		hint = ai.DefaultHint
	}

	return &model.CommandResult{
		Command: model.CommandHint,
		Message: fmt.Sprintf("Hint (%s): %s", obj.Name, hint),
		Hint:    hint,
	}
}

func (e *RoomEngine) guess(room *model.Room, guess string) *model.CommandResult {
	if room.MatchPassword(guess) {
		completed := room.IsLast()
		msg := "The lock clicks open. You escaped the room!"
		if completed {
			msg = "The lock clicks open. You escaped the final room. The game is complete!"
		}
		return &model.CommandResult{
			Command:       model.CommandGuess,
			Message:       msg,
			Unlocked:      true,
			GameCompleted: completed,
		}
	}

	// Догадка может быть ответом на загадку объекта: отмечаем объект
	// решенным, но дверь открывает только пароль комнаты.
	needle := strings.ToLower(strings.TrimSpace(guess))
	if needle != "" {
		for i := range room.Objects {
			obj := &room.Objects[i]
			if !obj.Unlocked && obj.Answer != "" &&
				strings.ToLower(obj.Answer) == needle {
				obj.Unlocked = true
				return &model.CommandResult{
					Command: model.CommandGuess,
					Message: fmt.Sprintf("That solves the %s puzzle, but the door stays shut. The room password is something else.", obj.Name),
					Object: &model.ObjectView{
						Name:        obj.Name,
						Description: obj.Description,
						Puzzle:      obj.Puzzle,
						Unlocked:    true,
						Details:     append([]string(nil), obj.Details...),
					},
				}
			}
		}
	}

	return &model.CommandResult{
		Command: model.CommandGuess,
		Message: "Wrong password. The door does not budge.",
	}
}
