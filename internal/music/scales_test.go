package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_AllKeysAreNaturalMinor(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, 12)

	for _, key := range keys {
		t.Run(string(key), func(t *testing.T) {
			scale := Lookup(key)
			require.Len(t, scale, 7)
			require.NoError(t, scale.Validate())
			assert.Equal(t, []int{2, 1, 2, 2, 1, 2, 2}, scale.Intervals())
			assert.GreaterOrEqual(t, scale.Root(), 57)
			assert.LessOrEqual(t, scale.Root(), 68)
		})
	}
}

func TestLookup_PinnedScales(t *testing.T) {
	tests := []struct {
		key      Key
		expected Scale
	}{
		{"A minor", Scale{57, 59, 60, 62, 64, 65, 67}},
		{"C minor", Scale{60, 62, 63, 65, 67, 68, 70}},
		{"C# minor", Scale{61, 63, 64, 66, 68, 69, 71}},
		{"E minor", Scale{64, 66, 67, 69, 71, 72, 74}},
		{"G# minor", Scale{68, 70, 71, 73, 75, 76, 78}},
		{"B minor", Scale{59, 61, 62, 64, 66, 67, 69}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.expected, Lookup(tt.key))
		})
	}
}

func TestLookup_UnknownKeyFallsBackToDefault(t *testing.T) {
	for _, key := range []Key{"", "F major", "H minor", "c minor", "Dorian"} {
		assert.Equal(t, Lookup(DefaultKey), Lookup(key), "key %q", key)
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	scale := Lookup("D minor")
	scale[0] = 0

	assert.Equal(t, 62, Lookup("D minor")[0])
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input    string
		expected Key
		ok       bool
	}{
		{"E minor", "E minor", true},
		{"  e minor ", "E minor", true},
		{"eb MINOR", "D# minor", true},
		{"Bb minor", "A# minor", true},
		{"D#minor", "D# minor", true},
		{"c# Minor", "C# minor", true},
		{"F major", "", false},
		{"minor", "", false},
		{"X minor", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, ok := ParseKey(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestResolve(t *testing.T) {
	key, scale, ok := Resolve("a minor")
	assert.True(t, ok)
	assert.Equal(t, Key("A minor"), key)
	assert.Equal(t, 57, scale.Root())

	key, scale, ok = Resolve("F major")
	assert.False(t, ok)
	assert.Equal(t, DefaultKey, key)
	assert.Equal(t, Lookup(DefaultKey), scale)
}

func TestScale_Degree(t *testing.T) {
	scale := Lookup("C minor")

	assert.Equal(t, 60, scale.Degree(0))
	assert.Equal(t, 67, scale.Degree(4))
	assert.Equal(t, 72, scale.Degree(7))
	assert.Equal(t, 75, scale.Degree(9))
	assert.Equal(t, 58, scale.Degree(-1))
	assert.Equal(t, 48, scale.Degree(-7))
}

func TestScale_Validate(t *testing.T) {
	assert.Error(t, Scale{}.Validate())
	assert.Error(t, Scale{60, 60, 62}.Validate())
	assert.Error(t, Scale{120, 130}.Validate())
	assert.NoError(t, Scale{60, 62}.Validate())
}

func TestScale_Contains(t *testing.T) {
	scale := Lookup("C minor")
	assert.True(t, scale.Contains(63))
	assert.False(t, scale.Contains(64))
	assert.False(t, scale.Contains(72))
}

func TestKey_Tonic(t *testing.T) {
	assert.Equal(t, "C#", Key("C# minor").Tonic())
	assert.Equal(t, "A", Key("A minor").Tonic())
}
