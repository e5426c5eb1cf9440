package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{"10", 1000},
		{"10.5", 1050},
		{"10.50", 1050},
		{"0.07", 7},
		{".99", 99},
		{"-3.25", -325},
		{"0", 0},
	}
	for _, c := range cases {
		m, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.cents, m.Cents, c.in)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "10.505", "1,50"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestStringRoundTrip(t *testing.T) {
	assert.Equal(t, "10.50", FromCents(1050).String())
	assert.Equal(t, "0.05", FromCents(5).String())
	assert.Equal(t, "-3.25", FromCents(-325).String())
}

func TestArithmetic(t *testing.T) {
	assert.Equal(t, int64(3000), FromCents(1000).Mul(3).Cents)
	assert.Equal(t, int64(1150), FromCents(1000).Add(FromCents(150)).Cents)
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(FromCents(1050))
	require.NoError(t, err)
	assert.Equal(t, `"10.50"`, string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"10.50"`), &m))
	assert.Equal(t, int64(1050), m.Cents)

	// bare number form, as older clients send it
	require.NoError(t, json.Unmarshal([]byte(`10.5`), &m))
	assert.Equal(t, int64(1050), m.Cents)
}
