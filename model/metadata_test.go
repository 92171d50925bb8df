package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValue(t *testing.T) {
	t.Run("Nil metadata stores an empty object", func(t *testing.T) {
		var m Metadata

		v, err := m.Value()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), v)
	})

	t.Run("Values are stored as JSON", func(t *testing.T) {
		m := Metadata{"backend": "prose"}

		v, err := m.Value()

		require.NoError(t, err)
		assert.JSONEq(t, `{"backend":"prose"}`, string(v.([]byte)))
	})
}

func TestMetadataScan(t *testing.T) {
	t.Run("Scan bytes", func(t *testing.T) {
		var m Metadata

		err := m.Scan([]byte(`{"chapters":12,"backend":"hugot"}`))

		require.NoError(t, err)
		n, ok := m.Int("chapters")
		assert.True(t, ok)
		assert.Equal(t, 12, n)
		s, ok := m.String("backend")
		assert.True(t, ok)
		assert.Equal(t, "hugot", s)
	})

	t.Run("Scan string", func(t *testing.T) {
		var m Metadata

		err := m.Scan(`{"threshold":0.86}`)

		require.NoError(t, err)
		assert.Equal(t, 0.86, m["threshold"])
	})

	t.Run("Scan nil gives empty metadata", func(t *testing.T) {
		m := Metadata{"old": true}

		err := m.Scan(nil)

		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("Scan unsupported type fails", func(t *testing.T) {
		var m Metadata

		err := m.Scan(42)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported type int")
	})

	t.Run("Scan invalid JSON fails", func(t *testing.T) {
		var m Metadata

		err := m.Scan([]byte(`{invalid`))

		assert.Error(t, err)
	})
}

func TestMetadataAccessors(t *testing.T) {
	m := Metadata{"n": 3, "s": "x", "f": 2.0}

	n, ok := m.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = m.Int("f")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = m.Int("s")
	assert.False(t, ok)

	_, ok = m.String("missing")
	assert.False(t, ok)
}
