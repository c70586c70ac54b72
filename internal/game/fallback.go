package game

import (
	"fmt"

	"escape-server/internal/model"
)

// FallbackPassword — детерминированный пароль резервной комнаты.
// Известен тестам и диагностике; игрок получает его через подсказки.
const FallbackPassword = "escape"

// Причины синтеза резервной комнаты, фиксируются в логах.
const (
	fallbackMissingCredential = "missing credential"
	fallbackGenerationFailed  = "generation call failed"
	fallbackMalformedContent  = "malformed content"
)

// fallbackRoom синтезирует минимальную, но полностью играбельную комнату,
// когда генерация недоступна или вернула непригодный результат. Комната
// детерминирована: одна и та же для любого сбоя.
func fallbackRoom(seq, total int) *model.Room {
	name := "The Service Corridor"
	background := "The lights flicker and the ornate chamber you were promised " +
		"never materializes. You stand in a plain service corridor with a " +
		"single locked door. Someone has scrawled instructions for moments " +
		"exactly like this one."
	if total > 1 && seq > 0 {
		name = fmt.Sprintf("The Service Corridor %d", seq)
	}

	return &model.Room{
		SequenceIndex:   seq,
		TotalInSequence: total,
		Name:            name,
		Background:      background,
		Password:        FallbackPassword,
		Hint:            "Read the writing on the wall.",
		Objects: []model.GameObject{
			{
				Name:        "wall",
				Description: "Bare concrete covered in chalk handwriting, underlined twice.",
				Puzzle:      "What does every locked room beg you to do?",
				Answer:      FallbackPassword,
				Details: []string{
					"The chalk message reads: 'when all else fails, the word is what you came here to do'.",
					"Below it, smaller: 'six letters, starts with e'.",
				},
			},
			{
				Name:        "door",
				Description: "A steel door with a simple keypad expecting a single word.",
				Puzzle:      "Say the word and you may leave.",
				Answer:      FallbackPassword,
				Details: []string{
					"The keypad label says: 'speak your intent'.",
				},
			},
		},
	}
}
