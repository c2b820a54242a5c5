package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStation(t *testing.T) {
	s := New()
	c := s.AddListener("test")

	s.Broadcast(Notification{RunID: "run-1", Protocol: "connections", State: "Invited"})
	n := <-c
	assert.Equal(t, "run-1", n.RunID)
	assert.Equal(t, "Invited", n.State)
	assert.NotZero(t, n.Timestamp)

	s.RmListener("test")
	_, open := <-c
	assert.False(t, open)
}

func TestStationReady(t *testing.T) {
	s := New()
	ready := s.StartListen("run-1")

	s.Broadcast(Notification{RunID: "run-1", State: "Requested"})
	s.Broadcast(Notification{RunID: "run-2", State: "Completed", Terminal: true})
	select {
	case <-ready:
		t.Fatal("not ready yet")
	default:
	}

	s.Broadcast(Notification{RunID: "run-1", State: "Completed", Terminal: true})
	n := <-ready
	require.Equal(t, "Completed", n.State)
}

func TestStationSlowListener(t *testing.T) {
	s := New()
	c := s.AddListener("slow")
	for i := 0; i < ListenerBuffer+5; i++ {
		s.Broadcast(Notification{RunID: "run"})
	}
	require.Len(t, c, ListenerBuffer)
}
