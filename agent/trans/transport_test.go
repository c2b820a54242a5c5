package trans

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSend(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, ContentType, r.Header.Get("Content-Type"))
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := NewHTTP(0)
	require.NoError(t, h.Send(context.Background(), srv.URL, []byte("packed")))
	require.Equal(t, "packed", string(got))
}

func TestHTTPSendRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := &HTTP{Client: srv.Client(), MaxElapsed: 10 * time.Second}
	require.NoError(t, h.Send(context.Background(), srv.URL, []byte("x")))
	require.Equal(t, int32(3), calls.Load())
}

func TestHTTPSendFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such agent", http.StatusNotFound)
	}))
	defer srv.Close()

	h := &HTTP{Client: srv.Client(), MaxElapsed: 10 * time.Second}
	err := h.Send(context.Background(), srv.URL, []byte("x"))
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "no such agent")
	require.Equal(t, int32(1), calls.Load())
}

func TestHTTPSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewHTTP(0).Send(context.Background(), url, []byte("x"))
	require.ErrorIs(t, err, ErrTransport)
}
