// Package bus delivers protocol run state changes to local listeners.
package bus

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2/assert"
)

// ListenerBuffer is the channel size of a listener. A listener that doesn't
// keep up loses notifications, the broadcaster never blocks.
const ListenerBuffer = 32

// Notification tells that a run was persisted in a new state.
type Notification struct {
	RunID     string
	Protocol  string
	Role      string
	State     string
	Terminal  bool
	Timestamp int64
}

type Station struct {
	lk        sync.Mutex
	listeners map[string]chan Notification
	ready     map[string]chan Notification
}

func New() *Station {
	return &Station{
		listeners: make(map[string]chan Notification),
		ready:     make(map[string]chan Notification),
	}
}

// AddListener registers a listener by a unique key.
func (s *Station) AddListener(key string) <-chan Notification {
	s.lk.Lock()
	defer s.lk.Unlock()

	_, alreadyExists := s.listeners[key]
	assert.That(!alreadyExists, "key: %s, already exists", key)

	c := make(chan Notification, ListenerBuffer)
	s.listeners[key] = c
	return c
}

// RmListener removes the listener and closes its channel.
func (s *Station) RmListener(key string) {
	s.lk.Lock()
	defer s.lk.Unlock()

	if c, ok := s.listeners[key]; ok {
		close(c)
		delete(s.listeners, key)
	}
}

// StartListen returns a channel that receives the run's terminal
// notification once.
func (s *Station) StartListen(runID string) <-chan Notification {
	s.lk.Lock()
	defer s.lk.Unlock()

	c, ok := s.ready[runID]
	if !ok {
		c = make(chan Notification, 1) // We need a buffered channel
		s.ready[runID] = c
	}
	return c
}

func (s *Station) Broadcast(n Notification) {
	if n.Timestamp == 0 {
		n.Timestamp = time.Now().UnixNano()
	}

	s.lk.Lock()
	defer s.lk.Unlock()

	for key, c := range s.listeners {
		select {
		case c <- n:
		default:
			glog.Warningln("listener", key, "full, notification dropped:", n.RunID)
		}
	}
	if !n.Terminal {
		return
	}
	// we broadcast the ready-info only once
	if c, ok := s.ready[n.RunID]; ok {
		c <- n
		delete(s.ready, n.RunID)
	}
}
