package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// InlineButton is an inline keyboard button definition used by the builder.
// Buttons with a URL open the link and carry no callback data.
type InlineButton struct {
	Text   string
	Unique string // Identifier that differentiates callback handlers.
	Data   string // Payload that will be encoded into callback data.
	URL    string
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a new row. Empty rows are skipped.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// AddGrid lays buttons out in rows of at most columns buttons.
func (b *InlineKeyboardBuilder) AddGrid(columns int, buttons ...InlineButton) *InlineKeyboardBuilder {
	if columns < 1 {
		columns = 1
	}
	for start := 0; start < len(buttons); start += columns {
		end := min(start+columns, len(buttons))
		b.AddRow(buttons[start:end]...)
	}
	return b
}

// Rows reports how many rows were added.
func (b *InlineKeyboardBuilder) Rows() int {
	return len(b.rows)
}

// Build renders the markup. It fails if any callback data exceeds the Telegram limit.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				inlineKeyboard[i][j] = telebot.InlineButton{Text: btn.Text, URL: btn.URL}
				continue
			}

			data, err := EncodeCallback(btn.Unique, btn.Data)
			if err != nil {
				return nil, err
			}
			inlineKeyboard[i][j] = telebot.InlineButton{Text: btn.Text, Data: data}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}
