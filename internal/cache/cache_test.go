package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_Expiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewTTL[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_Purge(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewTTL[string, string](time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(2 * time.Second)
	c.Set("c", "z")

	assert.Equal(t, 2, c.Purge())
	assert.Equal(t, 1, c.Len())
}
