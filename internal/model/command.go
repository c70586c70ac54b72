package model

// CommandType перечисляет поддерживаемые команды игрока.
type CommandType string

// Поддерживаемые команды
const (
	CommandNewGame CommandType = "newgame"
	CommandLook    CommandType = "look"
	CommandInspect CommandType = "inspect"
	CommandHint    CommandType = "hint"
	CommandGuess   CommandType = "guess"
	CommandStatus  CommandType = "status"
	CommandUnknown CommandType = "unknown"
)

// RoomView содержит публичное описание комнаты для команды look.
// Пароль и ответы на загадки сюда не попадают.
type RoomView struct {
	Name            string   `json:"name"`
	SequenceIndex   int      `json:"sequence_index,omitempty"`
	TotalInSequence int      `json:"total_in_sequence,omitempty"`
	Background      string   `json:"background,omitempty"`
	Objects         []string `json:"objects"`
}

// ObjectView содержит описание объекта для команды inspect.
type ObjectView struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Puzzle      string   `json:"puzzle,omitempty"`
	Unlocked    bool     `json:"unlocked"`
	Details     []string `json:"details,omitempty"`
}

// NextRoomView идентифицирует комнату, в которую перешел игрок после
// правильного пароля.
type NextRoomView struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// CommandResult — единый ответ движка на любую команду. Message всегда
// заполнено человекочитаемым текстом; структурные поля зависят от команды.
type CommandResult struct {
	Command       CommandType   `json:"command"`
	Message       string        `json:"message"`
	Room          *RoomView     `json:"room,omitempty"`
	Object        *ObjectView   `json:"object,omitempty"`
	Hint          string        `json:"hint,omitempty"`
	Unlocked      bool          `json:"unlocked"`
	GameCompleted bool          `json:"game_completed"`
	NextRoom      *NextRoomView `json:"next_room,omitempty"`
	NotFound      string        `json:"not_found,omitempty"`
}

// SessionStatus описывает прогресс игрока в сессии. UnlockedRooms
// содержит по флагу на комнату: true для комнат, в которые игрок уже входил.
type SessionStatus struct {
	CurrentRoom     int    `json:"current_room"` // 1-based
	TotalRooms      int    `json:"total_rooms"`
	ProgressPercent int    `json:"progress_percent"`
	Completed       bool   `json:"completed"`
	UnlockedRooms   []bool `json:"unlocked_rooms"`
}
