package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"escape-server/internal/model"
)

// ErrMalformedContent возвращается, когда ответ модели не удалось привести
// к пригодной комнате даже после исправлений и подстановки значений по
// умолчанию.
var ErrMalformedContent = errors.New("malformed room content")

// Значения по умолчанию для неполных ответов генератора.
const (
	DefaultHint   = "look for clues in the objects"
	DefaultPuzzle = "hidden puzzle"
	DefaultAnswer = "unknown"
)

// ExtractJSON извлекает первый сбалансированный JSON-объект из текста ответа.
// Модели часто оборачивают JSON в markdown-ограждения или добавляют
// пояснения до и после, поэтому берем содержимое от первой '{' до парной '}'.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	braceLevel := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		ch := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			braceLevel++
		case !inString && ch == '}':
			braceLevel--
			if braceLevel == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}

	// Объект не закрыт: возвращаем хвост, FixJSON дополнит скобки.
	return cleaned[start:], nil
}

// FixJSON проверяет и исправляет потенциально некорректный JSON.
// В частности, решает проблему незакрытых скобок в конце JSON.
func FixJSON(jsonStr string) string {
	if jsonStr == "" {
		return jsonStr
	}

	counts := map[byte]int{'{': 0, '}': 0, '[': 0, ']': 0}

	inString := false
	escaped := false
	for i := 0; i < len(jsonStr); i++ {
		ch := jsonStr[i]
		if ch == '"' && !escaped {
			inString = !inString
		}
		if !inString {
			if _, exists := counts[ch]; exists {
				counts[ch]++
			}
		}
		if ch == '\\' && !escaped {
			escaped = true
		} else {
			escaped = false
		}
	}

	fixed := jsonStr
	if imbalance := counts['['] - counts[']']; imbalance > 0 {
		log.Warn().Int("missing", imbalance).Msg("fixing unbalanced square brackets in AI response")
		fixed += strings.Repeat("]", imbalance)
	}
	if imbalance := counts['{'] - counts['}']; imbalance > 0 {
		log.Warn().Int("missing", imbalance).Msg("fixing unbalanced curly braces in AI response")
		fixed += strings.Repeat("}", imbalance)
	}

	return fixed
}

// stringList принимает как одиночную строку, так и массив строк.
// Старые версии промпта иногда возвращают details одной строкой.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*s = []string{one}
		}
		return nil
	}
	return fmt.Errorf("details must be a string or an array of strings")
}

type rawObject struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Puzzle      string     `json:"puzzle"`
	Answer      string     `json:"answer"`
	Unlocked    bool       `json:"unlocked"`
	Details     stringList `json:"details"`
}

// objectList принимает объекты как массивом, так и map'ой имя->объект.
// Нормализация legacy-формы выполняется здесь, на границе с генератором;
// движок всегда видит упорядоченный срез.
type objectList []rawObject

func (o *objectList) UnmarshalJSON(data []byte) error {
	var arr []rawObject
	if err := json.Unmarshal(data, &arr); err == nil {
		*o = arr
		return nil
	}

	var keyed map[string]rawObject
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("objects must be an array or a name-keyed map")
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	arr = make([]rawObject, 0, len(keyed))
	for _, k := range keys {
		obj := keyed[k]
		if obj.Name == "" {
			obj.Name = k
		}
		arr = append(arr, obj)
	}
	*o = arr
	return nil
}

type rawRoom struct {
	Name       string     `json:"name"`
	Background string     `json:"background"`
	Password   string     `json:"password"`
	Hint       string     `json:"hint"`
	Escaped    bool       `json:"escaped"`
	Objects    objectList `json:"objects"`
}

// ParseRoomResponse разбирает текст ответа модели в комнату. Неполные ответы
// дополняются значениями по умолчанию; ErrMalformedContent возвращается
// только когда после всех исправлений отсутствуют name, password или объекты.
func ParseRoomResponse(text string) (*model.Room, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedContent)
	}

	extracted, err := ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	var raw rawRoom
	if err := json.Unmarshal([]byte(FixJSON(extracted)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	room := &model.Room{
		Name:       strings.TrimSpace(raw.Name),
		Background: strings.TrimSpace(raw.Background),
		Password:   strings.TrimSpace(raw.Password),
		Hint:       strings.TrimSpace(raw.Hint),
		Escaped:    false,
		Objects:    make([]model.GameObject, 0, len(raw.Objects)),
	}

	if room.Hint == "" {
		room.Hint = DefaultHint
	}

	for _, obj := range raw.Objects {
		name := strings.TrimSpace(obj.Name)
		if name == "" {
			// Объект без имени невозможно осмотреть, пропускаем.
			log.Warn().Msg("dropping generated object without a name")
			continue
		}
		parsed := model.GameObject{
			Name:        name,
			Description: strings.TrimSpace(obj.Description),
			Puzzle:      strings.TrimSpace(obj.Puzzle),
			Answer:      strings.TrimSpace(obj.Answer),
			Unlocked:    false,
			Details:     append([]string(nil), obj.Details...),
		}
		if parsed.Puzzle == "" {
			parsed.Puzzle = DefaultPuzzle
		}
		if parsed.Answer == "" {
			parsed.Answer = DefaultAnswer
		}
		room.Objects = append(room.Objects, parsed)
	}

	if room.Name == "" || room.Password == "" || len(room.Objects) == 0 {
		return nil, fmt.Errorf("%w: missing required fields after backfill", ErrMalformedContent)
	}

	return room, nil
}
