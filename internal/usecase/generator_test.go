package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator(t *testing.T) {
	gen := NewRandomGenerator(6)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := gen.Generate("https://example.com", i)
		require.NoError(t, err)

		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(alphanumeric, c), "unexpected character %q", c)
		}
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 90)
}

func TestHashGenerator(t *testing.T) {
	gen := NewHashGenerator(8)

	first, err := gen.Generate("https://example.com", 0)
	require.NoError(t, err)
	again, err := gen.Generate("https://example.com", 0)
	require.NoError(t, err)
	salted, err := gen.Generate("https://example.com", 1)
	require.NoError(t, err)
	other, err := gen.Generate("https://example.org", 0)
	require.NoError(t, err)

	assert.Len(t, first, 8)
	assert.Equal(t, first, again)
	assert.NotEqual(t, first, salted)
	assert.NotEqual(t, first, other)

	long := NewHashGenerator(100)
	code, err := long.Generate("https://example.com", 0)
	require.NoError(t, err)
	assert.Len(t, code, 64)
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		want     CodeGenerator
		wantErr  bool
	}{
		{name: "default", strategy: "", want: &RandomGenerator{length: 6}},
		{name: "random", strategy: StrategyRandom, want: &RandomGenerator{length: 6}},
		{name: "hash", strategy: StrategyHash, want: &HashGenerator{length: 6}},
		{name: "unknown", strategy: "sequential", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.strategy, 6)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, gen)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, gen)
		})
	}
}
