package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
	lang         string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) Tf(key string, args map[string]string) string {
	text := m.T(key)
	for k, v := range args {
		text = strings.ReplaceAll(text, "{{."+k+"}}", v)
	}
	return text
}

func (m *mockTranslator) Lang() string {
	if m.lang == "" {
		return "en"
	}
	return m.lang
}

func TestPaginationButtons(t *testing.T) {
	translator := &mockTranslator{
		translations: map[string]string{
			"pagination.prev":    "◀️ Prev",
			"pagination.next":    "Next ▶️",
			"pagination.page":    "Page {{.Page}}/{{.Total}}",
			"pagination.current": "Page {{.Page}}",
		},
	}

	testCases := []struct {
		name      string
		pager     keyboard.Pager
		wantTexts []string
		wantData  []string
	}{
		{name: "first page", pager: keyboard.Known(1, 5), wantTexts: []string{"Page 1/5", "Next ▶️"}, wantData: []string{"1", "2"}},
		{name: "middle page", pager: keyboard.Known(3, 5), wantTexts: []string{"◀️ Prev", "Page 3/5", "Next ▶️"}, wantData: []string{"2", "3", "4"}},
		{name: "last page", pager: keyboard.Known(5, 5), wantTexts: []string{"◀️ Prev", "Page 5/5"}, wantData: []string{"4", "5"}},
		{name: "out of range clamps", pager: keyboard.Known(9, 2), wantTexts: []string{"◀️ Prev", "Page 2/2"}, wantData: []string{"1", "2"}},
		{name: "open list with a full page", pager: keyboard.Open(2, 10, 10), wantTexts: []string{"◀️ Prev", "Page 2", "Next ▶️"}, wantData: []string{"1", "2", "3"}},
		{name: "open list short page", pager: keyboard.Open(3, 4, 10), wantTexts: []string{"◀️ Prev", "Page 3"}, wantData: []string{"2", "3"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(translator, "txp", tc.pager)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, "txp", buttons[i].Unique)
				assert.Equal(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestPager_Visible(t *testing.T) {
	assert.False(t, keyboard.Known(1, 1).Visible())
	assert.True(t, keyboard.Known(1, 2).Visible())
	assert.False(t, keyboard.Open(1, 3, 10).Visible())
	assert.True(t, keyboard.Open(1, 10, 10).Visible())
	assert.True(t, keyboard.Open(2, 0, 10).Visible())
}

func TestPaginationButtons_NilTranslator(t *testing.T) {
	buttons := keyboard.PaginationButtons(nil, "cpage", keyboard.Known(2, 3))
	require.Len(t, buttons, 3)
	assert.Equal(t, "2/3", buttons[1].Text)
	assert.Equal(t, "· 4 ·", keyboard.PaginationButtons(nil, "cpage", keyboard.Pager{Page: 4})[1].Text)
}
