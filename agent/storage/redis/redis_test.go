package redis

import (
	"context"
	"os"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// testState is the smallest psm.Machine there is.
type testState struct {
	ThID string
}

func (s testState) StateName() string     { return "Waiting" }
func (s testState) Thread() psm.ThreadKey { return psm.SingleThread(s.ThID) }
func (s testState) Accepts(string) bool   { return false }
func (s testState) Terminal() bool        { return false }
func (s testState) LastMsgID() string     { return "" }

func newTestStore(t *testing.T) *Store {
	addr := os.Getenv("FDC_TEST_REDIS")
	if addr == "" {
		t.Skip("FDC_TEST_REDIS not set")
	}
	s := New(redis.NewClient(&redis.Options{Addr: addr}), "fdc-test-"+utils.UUID()+":")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := psm.NewRecord("connections", "inviter", testState{ThID: "th-1"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, r))

	got, err := s.Find(ctx, "th-1")
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
	require.Equal(t, r.State, got.State)

	var st testState
	require.NoError(t, got.Load(&st))
	require.Equal(t, "th-1", st.ThID)

	rs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	require.NoError(t, s.Remove(ctx, r.ID))
	_, err = s.Get(ctx, r.ID)
	require.ErrorIs(t, err, psm.ErrNotFound)
	_, err = s.Find(ctx, "th-1")
	require.ErrorIs(t, err, psm.ErrNotFound)
}

func TestKeys(t *testing.T) {
	s := New(nil, "")
	require.Equal(t, "fdc:run:x", s.runKey("x"))
	require.Equal(t, "fdc:thread:t", s.threadKey("t"))
	require.Equal(t, "fdc:runs", s.runsKey())
}
