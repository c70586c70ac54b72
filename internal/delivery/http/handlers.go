package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"escape-server/internal/auth"
	"escape-server/internal/delivery/http/middleware"
	"escape-server/internal/model"
	"escape-server/internal/service"
)

// Handler представляет HTTP обработчик игрового API.
type Handler struct {
	gameService *service.GameService
	authManager *auth.Manager
}

// New создает новый экземпляр обработчика.
func New(gameService *service.GameService, authManager *auth.Manager) *Handler {
	return &Handler{
		gameService: gameService,
		authManager: authManager,
	}
}

// RegisterPublicRoutes регистрирует маршруты, не требующие токена.
func (h *Handler) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/auth/guest", h.GuestToken).Methods("POST")
	router.HandleFunc("/health", h.Health).Methods("GET")
}

// RegisterRoutes регистрирует игровые маршруты (за JWT middleware).
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/game/new", h.NewGame).Methods("POST")
	router.HandleFunc("/game/command", h.Command).Methods("POST")
	router.HandleFunc("/game/status", h.Status).Methods("GET")
	router.HandleFunc("/game/history", h.History).Methods("GET")
	router.HandleFunc("/chat", h.Chat).Methods("POST")
}

// Health — проверка живости сервера.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GuestToken выдает JWT для нового гостевого игрока.
func (h *Handler) GuestToken(w http.ResponseWriter, r *http.Request) {
	user := model.User{
		ID:        uuid.New().String(),
		Guest:     true,
		CreatedAt: time.Now().UTC(),
	}

	token, expiresAt, err := h.authManager.GenerateToken(user.ID, true)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue guest token")
		RespondWithError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	RespondWithJSON(w, http.StatusOK, model.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// NewGameRequest — тело запроса на создание игры.
type NewGameRequest struct {
	Mode  string `json:"mode"`
	Rooms int    `json:"rooms"`
}

// NewGame создает новую игровую сессию для пользователя.
func (h *Handler) NewGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	// Пустое тело допустимо: применяются значения по умолчанию.
	var req NewGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.gameService.NewGame(r.Context(), userID, req.Mode, req.Rooms)
	if err != nil {
		if errors.Is(err, service.ErrUnknownMode) {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to create game")
		RespondWithError(w, http.StatusInternalServerError, "failed to create game")
		return
	}

	RespondWithJSON(w, http.StatusOK, resp)
}

// CommandRequest — тело запроса с командой игрока.
type CommandRequest struct {
	Command string `json:"command"`
}

// Command выполняет команду игрока в его активной сессии.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.gameService.Command(r.Context(), userID, req.Command)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			RespondWithError(w, http.StatusNotFound, "no active game, start one with /game/new")
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to process command")
		RespondWithError(w, http.StatusInternalServerError, "failed to process command")
		return
	}

	RespondWithJSON(w, http.StatusOK, result)
}

// Status возвращает прогресс активной сессии.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	status, err := h.gameService.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			RespondWithError(w, http.StatusNotFound, "no active game")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "failed to load status")
		return
	}

	RespondWithJSON(w, http.StatusOK, status)
}

// History возвращает архив завершенных и текущих игр пользователя.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	records, err := h.gameService.History(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load history")
		RespondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	RespondWithJSON(w, http.StatusOK, records)
}

// ChatRequest — тело свободного сообщения рассказчику.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse — ответ рассказчика.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat передает сообщение игрока чат-модели.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		RespondWithError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.gameService.Chat(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrChatUnavailable) {
			RespondWithError(w, http.StatusServiceUnavailable, "chat is not configured")
			return
		}
		log.Error().Err(err).Msg("chat request failed")
		RespondWithError(w, http.StatusBadGateway, "chat request failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// RespondWithError отправляет JSON с сообщением об ошибке.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON отправляет JSON-ответ с указанным статусом.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
