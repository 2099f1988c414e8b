package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeAction(t *testing.T) {
	testCases := []struct {
		name   string
		unique string
		data   string
	}{
		{name: "bare action", unique: ActionConfirm, data: ""},
		{name: "action with page", unique: ActionAssetsPage, data: "3"},
		{name: "action with symbol", unique: ActionAssetPick, data: "USDC"},
		{name: "data containing the separator", unique: ActionTradeBuy, data: "A:B"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			token := encodeAction(tc.unique, tc.data)
			assert.LessOrEqual(t, len(token), actionLimitBytes)

			unique, data, err := decodeAction(token)
			assert.NoError(t, err)
			assert.Equal(t, tc.unique, unique)
			assert.Equal(t, tc.data, data)
		})
	}
}

func TestEncodeAction_OversizedDataDegrades(t *testing.T) {
	token := encodeAction(ActionAssetPick, strings.Repeat("x", 200))
	assert.Equal(t, ActionAssetPick, token, "oversized tokens degrade to the bare unique")
	assert.LessOrEqual(t, len(token), actionLimitBytes)
}

func TestDecodeAction_Malformed(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace only", raw: "   "},
		{name: "separator only", raw: ":"},
		{name: "leading separator", raw: ":data"},
		{name: "over the byte limit", raw: strings.Repeat("a", actionLimitBytes+1)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decodeAction(tc.raw)
			assert.ErrorIs(t, err, errBadAction)
		})
	}
}

func TestDecodeAction_TrailingSeparatorYieldsEmptyData(t *testing.T) {
	unique, data, err := decodeAction("assets_page:")
	assert.NoError(t, err)
	assert.Equal(t, ActionAssetsPage, unique)
	assert.Empty(t, data)
}
