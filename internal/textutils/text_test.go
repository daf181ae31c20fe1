package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveAccents(t *testing.T) {
	tests := map[string]string{
		"Régimen Especial": "Regimen Especial",
		"Medimás":          "Medimas",
		"CAÑÓN":            "CANON",
		"plain":            "plain",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, RemoveAccents(in), in)
	}
}

func TestFoldAndContains(t *testing.T) {
	assert.Equal(t, "AUTORIZACION", Fold("autorización"))
	assert.True(t, ContainsFolded("Número de AUTORIZACIÓN: 123", "autorizacion"))
	assert.False(t, ContainsFolded("factura", "nota"))
}

func TestStripWhitespace(t *testing.T) {
	assert.Equal(t, "abc123", StripWhitespace(" a b\tc\n1 2 3 "))
}
