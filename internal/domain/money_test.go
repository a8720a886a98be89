package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("1500.00").Equal(dec("1500")))
	assert.True(t, ParseAmount(" 42.5 ").Equal(dec("42.5")))
	assert.True(t, ParseAmount("-200").Equal(dec("-200")))
	assert.True(t, ParseAmount("").IsZero())
	assert.True(t, ParseAmount("n/a").IsZero())
	assert.True(t, ParseAmount("12,50").IsZero(), "locale separators are not numbers")
}

func TestFlexAmount_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Total FlexAmount `json:"grand_total"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"grand_total": 1500.5}`), &payload))
	assert.True(t, payload.Total.Equal(dec("1500.5")))

	require.NoError(t, json.Unmarshal([]byte(`{"grand_total": "99.95"}`), &payload))
	assert.True(t, payload.Total.Equal(dec("99.95")))

	require.NoError(t, json.Unmarshal([]byte(`{"grand_total": null}`), &payload))
	assert.True(t, payload.Total.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"grand_total": "oops"}`), &payload))
	assert.True(t, payload.Total.IsZero())
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, "10.57", RoundCents(dec("10.565")).StringFixed(2))
	assert.Equal(t, "0.00", RoundCents(dec("0.0049")).StringFixed(2))
}
