package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpLog(t *testing.T) {
	l := NewOpLog()
	clock := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Add("Loaded: %s", "cat.jpg")
	clock = clock.Add(time.Minute)
	l.Add("Gaussian Blur: %d", 40)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []string{"Loaded: cat.jpg", "Gaussian Blur: 40"}, l.Messages())
	assert.Equal(t, []string{"[09:05:07] Loaded: cat.jpg", "[09:06:07] Gaussian Blur: 40"}, l.Lines())

	entries := l.Entries()
	entries[0].Message = "changed"
	assert.Equal(t, "Loaded: cat.jpg", l.Messages()[0])

	l.Reset()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Lines())
}
