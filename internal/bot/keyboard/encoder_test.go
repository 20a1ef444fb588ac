package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{name: "with data", unique: "cpage", data: "2", want: "cpage:2"},
		{name: "without data", unique: "cancel", want: "cancel"},
		{name: "exceeds limit", unique: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), wantError: true},
		{name: "payload exceeds limit", unique: "game", data: strings.Repeat("x", keyboard.CallbackDataLimitBytes), wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{name: "unique and data", input: "txp:3", wantUnique: "txp", wantData: "3"},
		{name: "only unique", input: "cancel", wantUnique: "cancel"},
		{name: "multiple separators", input: "game:fast:42", wantUnique: "game", wantData: "fast:42"},
		{name: "empty input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnique, unique)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestJoinAndSplitArgs(t *testing.T) {
	assert.Equal(t, "42|approve", keyboard.JoinArgs("42", "approve"))
	assert.Equal(t, []string{"42", "approve"}, keyboard.SplitArgs("42|approve"))
	assert.Nil(t, keyboard.SplitArgs(""))
}
