package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	m, err := FromString("123.45")
	require.NoError(t, err)
	require.Equal(t, int64(12345), m.Cents())

	m, err = FromString("-0.01")
	require.NoError(t, err)
	require.Equal(t, int64(-1), m.Cents())

	_, err = FromString("not a number")
	require.Error(t, err)
}

func TestFromFloatRoundsHalfAwayFromZero(t *testing.T) {
	require.Equal(t, int64(1006), FromFloat(10.055).Cents())
	require.Equal(t, int64(-1006), FromFloat(-10.055).Cents())
	require.Equal(t, int64(1005), FromFloat(10.054).Cents())
}

func TestArithmetic(t *testing.T) {
	a := FromCents(1000)
	b := FromCents(250)

	require.Equal(t, int64(1250), a.Add(b).Cents())
	require.Equal(t, int64(750), a.Sub(b).Cents())
	require.Equal(t, int64(-1000), a.Neg().Cents())
	require.True(t, Zero.IsZero())
	require.True(t, a.Sub(a).IsZero())
	require.True(t, b.Sub(a).IsNegative())
}

func TestMulScalar(t *testing.T) {
	// 3 x 33.33 = 99.99
	require.Equal(t, int64(9999), FromCents(3333).MulScalar(3).Cents())
	// 2.5 x 10.01 = 25.025 -> 25.03 (half away from zero)
	require.Equal(t, int64(2503), FromCents(1001).MulScalar(2.5).Cents())
	// negative quantity flips the sign
	require.Equal(t, int64(-2000), FromCents(1000).MulScalar(-2).Cents())
}

func TestMulRate(t *testing.T) {
	// 100.00 at 20% = 20.00
	require.Equal(t, int64(2000), FromCents(10000).MulRate(20).Cents())
	// 0.05 at 5.5% = 0.00275 -> 0.00
	require.Equal(t, int64(0), FromCents(5).MulRate(5.5).Cents())
	// 33.33 at 5.5% = 1.83315 -> 1.83
	require.Equal(t, int64(183), FromCents(3333).MulRate(5.5).Cents())
	// half-cent rounds away from zero: 1.25 at 10% = 0.125 -> 0.13
	require.Equal(t, int64(13), FromCents(125).MulRate(10).Cents())
}

func TestProrate(t *testing.T) {
	discount := FromCents(1000)

	// 60/40 split of a 10.00 discount
	require.Equal(t, int64(600), discount.Prorate(FromCents(6000), FromCents(10000)).Cents())
	require.Equal(t, int64(400), discount.Prorate(FromCents(4000), FromCents(10000)).Cents())

	// zero denominator yields zero
	require.True(t, discount.Prorate(FromCents(500), Zero).IsZero())

	// one third of 0.10 is 0.0333... -> 0.03
	require.Equal(t, int64(3), FromCents(10).Prorate(FromCents(1), FromCents(3)).Cents())
}

func TestString(t *testing.T) {
	require.Equal(t, "100.00", FromCents(10000).String())
	require.Equal(t, "-0.05", FromCents(-5).String())
	require.Equal(t, "0.00", Zero.String())
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(FromCents(12345))
	require.NoError(t, err)
	require.Equal(t, `"123.45"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"99.99"`), &m))
	require.Equal(t, int64(9999), m.Cents())

	require.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}
