package subscriber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

func TestOutbox_CoalesceKeepsOnlyNewestFrame(t *testing.T) {
	o := newOutbox(domain.PolicyCoalesce, 16) // size is forced to 1

	for i := byte('a'); i <= 'e'; i++ {
		require.Equal(t, domain.Accepted, o.put([]byte{i}))
	}

	// Only the newest pending frame survives.
	assert.Equal(t, []byte{'e'}, <-o.frames)
	assert.Empty(t, o.frames)
}

func TestOutbox_CoalesceNeverReportsFull(t *testing.T) {
	o := newOutbox(domain.PolicyCoalesce, 1)
	for range 100 {
		assert.Equal(t, domain.Accepted, o.put([]byte("x")))
	}
}

func TestOutbox_DropAcceptsUpToCapacity(t *testing.T) {
	o := newOutbox(domain.PolicyDrop, 3)

	assert.Equal(t, domain.Accepted, o.put([]byte("1")))
	assert.Equal(t, domain.Accepted, o.put([]byte("2")))
	assert.Equal(t, domain.Accepted, o.put([]byte("3")))
	assert.Equal(t, domain.BufferFull, o.put([]byte("4")))

	// Frames come out in production order, the overflowed one is gone.
	assert.Equal(t, []byte("1"), <-o.frames)
	assert.Equal(t, []byte("2"), <-o.frames)
	assert.Equal(t, []byte("3"), <-o.frames)
	assert.Empty(t, o.frames)
}

func TestOutbox_DropRecoversAfterDrain(t *testing.T) {
	o := newOutbox(domain.PolicyDrop, 1)

	require.Equal(t, domain.Accepted, o.put([]byte("1")))
	require.Equal(t, domain.BufferFull, o.put([]byte("2")))

	<-o.frames
	assert.Equal(t, domain.Accepted, o.put([]byte("3")))
}
