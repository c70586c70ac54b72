package model

import "strings"

// Room описывает одну комнату квеста: название, предысторию, пароль и
// набор осматриваемых объектов. Структура соответствует выводу room_creator.md.
type Room struct {
	ID              string       `json:"id,omitempty" yaml:"id"`
	SequenceIndex   int          `json:"sequence_index,omitempty" yaml:"sequence_index,omitempty"`
	TotalInSequence int          `json:"total_in_sequence,omitempty" yaml:"total_in_sequence,omitempty"`
	Name            string       `json:"name" yaml:"name"`
	Background      string       `json:"background" yaml:"background"`
	Password        string       `json:"password" yaml:"password"`
	Hint            string       `json:"hint,omitempty" yaml:"hint,omitempty"`
	Escaped         bool         `json:"escaped" yaml:"escaped,omitempty"`
	Objects         []GameObject `json:"objects" yaml:"objects"`
}

// GameObject представляет осматриваемый объект внутри комнаты.
type GameObject struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Puzzle      string   `json:"puzzle,omitempty" yaml:"puzzle,omitempty"`
	Answer      string   `json:"answer,omitempty" yaml:"answer,omitempty"`
	Unlocked    bool     `json:"unlocked" yaml:"unlocked,omitempty"`
	Details     []string `json:"details,omitempty" yaml:"details,omitempty"`
}

// FindObject ищет объект по имени без учета регистра.
// Возвращает nil, если объект не найден.
func (r *Room) FindObject(name string) *GameObject {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range r.Objects {
		if strings.ToLower(r.Objects[i].Name) == needle {
			return &r.Objects[i]
		}
	}
	return nil
}

// MatchPassword сравнивает пароль комнаты с догадкой игрока без учета регистра.
func (r *Room) MatchPassword(guess string) bool {
	return r.Password != "" &&
		strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(r.Password))
}

// IsLast сообщает, является ли комната последней в своей последовательности.
func (r *Room) IsLast() bool {
	return r.TotalInSequence > 0 && r.SequenceIndex >= r.TotalInSequence
}

// ObjectNames возвращает упорядоченный список имен объектов комнаты.
func (r *Room) ObjectNames() []string {
	names := make([]string, 0, len(r.Objects))
	for _, obj := range r.Objects {
		names = append(names, obj.Name)
	}
	return names
}

// Clone возвращает глубокую копию комнаты. Используется при создании движка
// из каталога, чтобы флаги unlocked не протекали между сессиями.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Objects = make([]GameObject, len(r.Objects))
	for i, obj := range r.Objects {
		cp.Objects[i] = obj
		cp.Objects[i].Details = append([]string(nil), obj.Details...)
	}
	return &cp
}

// GenerateRoomRequest содержит параметры запроса на генерацию комнаты.
// Для комнат с K>1 заполняются данные предыдущей комнаты, чтобы сюжет
// продолжался связно.
type GenerateRoomRequest struct {
	Credential         string `json:"-"`
	SequenceIndex      int    `json:"sequence_index,omitempty"`
	TotalInSequence    int    `json:"total_in_sequence,omitempty"`
	Theme              string `json:"theme,omitempty"`
	PrevRoomName       string `json:"prev_room_name,omitempty"`
	PrevRoomBackground string `json:"prev_room_background,omitempty"`
}

// Standalone сообщает, что запрошена одиночная комната вне последовательности.
func (req GenerateRoomRequest) Standalone() bool {
	return req.TotalInSequence <= 1
}
