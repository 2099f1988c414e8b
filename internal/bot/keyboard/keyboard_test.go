package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arctis-labs/lumen-bot/internal/engine"
)

func TestMarkup(t *testing.T) {
	markup := Markup([][]engine.Action{
		{
			{Label: "Confirm ✅", Token: "confirm"},
			{Label: "Cancel ❌", Token: "cancel"},
		},
		{
			{Label: "Next ›", Token: "assets_page:2"},
		},
	})

	if assert.NotNil(t, markup) {
		assert.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Equal(t, "Confirm ✅", markup.InlineKeyboard[0][0].Text)
		assert.Equal(t, "confirm", markup.InlineKeyboard[0][0].Data)
		assert.Equal(t, "assets_page:2", markup.InlineKeyboard[1][0].Data)
	}
}

func TestMarkup_DropsEmptyActionsAndRows(t *testing.T) {
	markup := Markup([][]engine.Action{
		{
			{Label: "", Token: "confirm"},
			{Label: "Cancel", Token: ""},
		},
		{
			{Label: "Menu", Token: "menu"},
		},
	})

	if assert.NotNil(t, markup) {
		assert.Len(t, markup.InlineKeyboard, 1, "rows left empty by filtering are dropped")
		assert.Equal(t, "Menu", markup.InlineKeyboard[0][0].Text)
	}
}

func TestMarkup_NoActions(t *testing.T) {
	assert.Nil(t, Markup(nil))
	assert.Nil(t, Markup([][]engine.Action{{}}))
}
