package ai_test

import (
	"testing"

	"escape-server/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object",
			in:   `{"name": "Vault"}`,
			want: `{"name": "Vault"}`,
		},
		{
			name: "markdown fence",
			in:   "```json\n{\"name\": \"Vault\"}\n```",
			want: `{"name": "Vault"}`,
		},
		{
			name: "fence without language",
			in:   "```\n{\"name\": \"Vault\"}\n```",
			want: `{"name": "Vault"}`,
		},
		{
			name: "prose around the object",
			in:   `Here is your room: {"name": "Vault"} Enjoy!`,
			want: `{"name": "Vault"}`,
		},
		{
			name: "braces inside strings ignored",
			in:   `{"name": "The {Hidden} Vault", "hint": "look}"}`,
			want: `{"name": "The {Hidden} Vault", "hint": "look}"}`,
		},
		{
			name: "nested objects",
			in:   `{"a": {"b": {"c": 1}}} trailing`,
			want: `{"a": {"b": {"c": 1}}}`,
		},
		{
			name: "unclosed object returns tail",
			in:   `noise {"name": "Vault", "objects": [`,
			want: `{"name": "Vault", "objects": [`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ai.ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("no object at all", func(t *testing.T) {
		_, err := ai.ExtractJSON("the model refused to answer")
		assert.Error(t, err)
	})
}

func TestFixJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"balanced untouched", `{"a": [1, 2]}`, `{"a": [1, 2]}`},
		{"missing closing brace", `{"a": 1`, `{"a": 1}`},
		{"missing bracket and brace", `{"a": [1, 2`, `{"a": [1, 2]}`},
		{"brace inside string not counted", `{"a": "{"`, `{"a": "{"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ai.FixJSON(tc.in))
		})
	}
}

func TestParseRoomResponseComplete(t *testing.T) {
	text := "```json\n" + `{
		"name": "The Cipher Vault",
		"background": "Steel walls.",
		"password": "Cipher3",
		"hint": "Count the dials.",
		"objects": [
			{
				"name": "dial",
				"description": "A numbered dial.",
				"puzzle": "How many turns?",
				"answer": "three",
				"details": ["The dial clicks three times.", "A worn number 3."]
			}
		]
	}` + "\n```"

	room, err := ai.ParseRoomResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "The Cipher Vault", room.Name)
	assert.Equal(t, "Cipher3", room.Password)
	assert.Equal(t, "Count the dials.", room.Hint)
	assert.False(t, room.Escaped)
	require.Len(t, room.Objects, 1)
	assert.Equal(t, "dial", room.Objects[0].Name)
	assert.Equal(t, "three", room.Objects[0].Answer)
	assert.Len(t, room.Objects[0].Details, 2)
}

func TestParseRoomResponseBackfill(t *testing.T) {
	text := `{
		"name": "Sparse Room",
		"password": "x",
		"objects": [
			{"name": "box", "description": "A box."}
		]
	}`

	room, err := ai.ParseRoomResponse(text)
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultHint, room.Hint)
	require.Len(t, room.Objects, 1)
	assert.Equal(t, ai.DefaultPuzzle, room.Objects[0].Puzzle)
	assert.Equal(t, ai.DefaultAnswer, room.Objects[0].Answer)
	assert.False(t, room.Objects[0].Unlocked, "unlocked flag from the model must be reset")
}

func TestParseRoomResponseObjectsAsMap(t *testing.T) {
	text := `{
		"name": "Map Room",
		"password": "x",
		"objects": {
			"zither": {"description": "A zither."},
			"atlas": {"description": "An atlas.", "details": "A single string detail."}
		}
	}`

	room, err := ai.ParseRoomResponse(text)
	require.NoError(t, err)
	require.Len(t, room.Objects, 2)
	// Map-форма нормализуется в отсортированный по ключам срез
	assert.Equal(t, "atlas", room.Objects[0].Name)
	assert.Equal(t, "zither", room.Objects[1].Name)
	assert.Equal(t, []string{"A single string detail."}, room.Objects[0].Details)
}

func TestParseRoomResponseRepairsTruncation(t *testing.T) {
	text := `{"name": "Cut Room", "password": "x", "objects": [{"name": "rope", "description": "A rope."}`

	room, err := ai.ParseRoomResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "Cut Room", room.Name)
	require.Len(t, room.Objects, 1)
	assert.Equal(t, "rope", room.Objects[0].Name)
}

func TestParseRoomResponseDropsNamelessObjects(t *testing.T) {
	text := `{
		"name": "Half Room",
		"password": "x",
		"objects": [
			{"name": "", "description": "ghost"},
			{"name": "lamp", "description": "A lamp."}
		]
	}`

	room, err := ai.ParseRoomResponse(text)
	require.NoError(t, err)
	require.Len(t, room.Objects, 1)
	assert.Equal(t, "lamp", room.Objects[0].Name)
}

func TestParseRoomResponseMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"no json", "I cannot create a room."},
		{"missing password", `{"name": "Room", "objects": [{"name": "box"}]}`},
		{"missing name", `{"password": "x", "objects": [{"name": "box"}]}`},
		{"no objects", `{"name": "Room", "password": "x", "objects": []}`},
		{"only nameless objects", `{"name": "Room", "password": "x", "objects": [{"description": "ghost"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ai.ParseRoomResponse(tc.in)
			assert.ErrorIs(t, err, ai.ErrMalformedContent)
		})
	}
}
