package endp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/stretchr/testify/require"
)

func TestNewServerAddr(t *testing.T) {
	type args struct {
		s string
	}
	tests := []struct {
		name   string
		args   args
		wantEa *Addr
	}{
		{"service", args{"/a2a"}, &Addr{Service: "a2a"}},
		{"receiver", args{"/a2a/agent-1"}, &Addr{Service: "a2a", Rcvr: "agent-1"}},
		{"extra", args{"/a2a/agent-1/extra"}, &Addr{Service: "a2a", Rcvr: "agent-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotEa := NewServerAddr(tt.args.s); !reflect.DeepEqual(gotEa, tt.wantEa) {
				t.Errorf("NewServerAddr() = %v, want %v", gotEa, tt.wantEa)
			}
		})
	}
}

func TestNewClientAddr(t *testing.T) {
	ea, err := NewClientAddr("http://localhost:8080/a2a/agent-1")
	require.NoError(t, err)
	require.Equal(t, &Addr{BasePath: "http://localhost:8080", Service: "a2a", Rcvr: "agent-1"}, ea)
	require.Equal(t, "http://localhost:8080/a2a/agent-1", ea.Address())
	require.True(t, ea.Valid())

	_, err = NewClientAddr("localhost")
	require.Error(t, err)
}

func TestHandler(t *testing.T) {
	var (
		gotAddr *Addr
		gotData []byte
	)
	var result error
	h := NewHandler("http://agent.example", "a2a", ReceiverFunc(
		func(_ context.Context, addr *Addr, data []byte) error {
			gotAddr, gotData = addr, data
			return result
		}))
	srv := httptest.NewServer(h)
	defer srv.Close()

	post := func(path string) int {
		resp, err := http.Post(srv.URL+path, "application/ssi-agent-wire", bytes.NewReader([]byte("packed")))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	require.Equal(t, http.StatusAccepted, post("/a2a"))
	require.Equal(t, "packed", string(gotData))
	require.Equal(t, "http://agent.example/a2a", gotAddr.Address())

	require.Equal(t, http.StatusAccepted, post("/a2a/agent-1"))
	require.Equal(t, "agent-1", gotAddr.Rcvr)

	require.Equal(t, http.StatusNotFound, post("/other"))

	result = fmt.Errorf("unpack: %w", envelope.ErrDecryptionFailed)
	require.Equal(t, http.StatusBadRequest, post("/a2a"))

	result = fmt.Errorf("store failed")
	require.Equal(t, http.StatusInternalServerError, post("/a2a"))

	resp, err := http.Get(srv.URL + "/a2a")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
