package model

import "time"

// User представляет игрока. Гостевые пользователи создаются автоматически
// при выдаче токена и не имеют email.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Username  string    `json:"username,omitempty" firestore:"username,omitempty"`
	Guest     bool      `json:"guest" firestore:"guest"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
}

// TokenResponse содержит токен аутентификации и данные пользователя.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// GameRecord — снимок прогресса сессии для персистентного хранилища.
// Пишется best-effort после каждой команды; потеря записи не ломает игру.
type GameRecord struct {
	SessionID     string     `json:"session_id" firestore:"session_id"`
	UserID        string     `json:"user_id" firestore:"user_id"`
	Mode          string     `json:"mode" firestore:"mode"` // "default" или "generated"
	CurrentRoom   int        `json:"current_room" firestore:"current_room"`
	TotalRooms    int        `json:"total_rooms" firestore:"total_rooms"`
	Completed     bool       `json:"completed" firestore:"completed"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" firestore:"completed_at,omitempty"`
	LastCommandAt time.Time  `json:"last_command_at" firestore:"last_command_at"`
}
