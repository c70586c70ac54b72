package catalog

import (
	_ "embed"
	"fmt"

	"escape-server/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed rooms.yaml
var defaultRoomsYAML []byte

// Catalog хранит фиксированный набор комнат для режима игры без генерации.
// Заполняется один раз при старте процесса и далее только читается.
type Catalog struct {
	rooms map[string]*model.Room
	order []string
}

type catalogFile struct {
	Rooms []model.Room `yaml:"rooms"`
}

// Load разбирает встроенный YAML с комнатами по умолчанию.
func Load() (*Catalog, error) {
	return parse(defaultRoomsYAML)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse room catalog: %w", err)
	}
	if len(file.Rooms) == 0 {
		return nil, fmt.Errorf("room catalog is empty")
	}

	c := &Catalog{rooms: make(map[string]*model.Room, len(file.Rooms))}
	for i := range file.Rooms {
		room := file.Rooms[i]
		if room.ID == "" || room.Name == "" || room.Password == "" {
			return nil, fmt.Errorf("catalog room %d is missing id, name or password", i+1)
		}
		if len(room.Objects) == 0 {
			return nil, fmt.Errorf("catalog room %q has no objects", room.ID)
		}
		if _, exists := c.rooms[room.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog room id %q", room.ID)
		}
		c.rooms[room.ID] = &room
		c.order = append(c.order, room.ID)
	}
	return c, nil
}

// Lookup возвращает комнату по идентификатору. Комната отдается копией,
// чтобы вызывающая сторона не могла изменить каталог.
func (c *Catalog) Lookup(id string) (*model.Room, bool) {
	room, ok := c.rooms[id]
	if !ok {
		return nil, false
	}
	return room.Clone(), true
}

// Rooms возвращает все комнаты каталога в порядке объявления.
func (c *Catalog) Rooms() []*model.Room {
	out := make([]*model.Room, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rooms[id].Clone())
	}
	return out
}

// Len возвращает количество комнат в каталоге.
func (c *Catalog) Len() int {
	return len(c.order)
}
