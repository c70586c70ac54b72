package game

import (
	"strings"

	"escape-server/internal/model"
)

// Command — разобранная команда игрока: глагол и аргумент как есть
// (аргумент сохраняет регистр и внутренние пробелы, пароли и имена
// объектов могут состоять из нескольких слов).
type Command struct {
	Type     model.CommandType
	Argument string
}

// supportedVerbs перечисляет глаголы в подсказке для неизвестных команд.
const supportedVerbs = "newgame, look, inspect <object>, hint, guess <password>, status"

// ParseCommand разбирает сырую строку в команду. Глагол распознается без
// учета регистра; все после первого пробела считается аргументом дословно.
func ParseCommand(raw string) Command {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Command{Type: model.CommandUnknown}
	}

	verb := trimmed
	argument := ""
	if idx := strings.IndexByte(trimmed, ' '); idx != -1 {
		verb = trimmed[:idx]
		argument = trimmed[idx+1:]
	}

	switch strings.ToLower(verb) {
	case "newgame":
		return Command{Type: model.CommandNewGame, Argument: argument}
	case "look":
		return Command{Type: model.CommandLook}
	case "inspect":
		return Command{Type: model.CommandInspect, Argument: argument}
	case "hint":
		return Command{Type: model.CommandHint}
	case "guess":
		return Command{Type: model.CommandGuess, Argument: argument}
	case "status":
		return Command{Type: model.CommandStatus}
	default:
		return Command{Type: model.CommandUnknown, Argument: trimmed}
	}
}

// unknownCommandResult формирует ответ на нераспознанную команду.
// Это не ошибка: сессия остается полностью рабочей.
func unknownCommandResult() *model.CommandResult {
	return &model.CommandResult{
		Command: model.CommandUnknown,
		Message: "I don't understand that. Try one of: " + supportedVerbs + ".",
	}
}
