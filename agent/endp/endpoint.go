// Package endp is the inbound side of the transport: endpoint addresses and
// the HTTP handler that hands the received bytes to a Receiver.
package endp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/findy-network/findy-didcomm/agent/envelope"
	"github.com/findy-network/findy-didcomm/agent/trans"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// MaxBody limits the size of an inbound message.
const MaxBody = 4 << 20

/*
Addr is an endpoint address of this agent: the host part, the service name
and an optional receiver. Receiver is free form, e.g. an id of a local agent
when one server hosts several.
*/
type Addr struct {
	BasePath string // The base address of the URL
	Service  string // Service name like a2a
	Rcvr     string // Optional receiver under the service
}

// NewServerAddr creates and fills new object from string usually got from
// service calls like HTTP POST request. For that reason it cannot fill base
// address field.
func NewServerAddr(s string) *Addr {
	ea := new(Addr)
	parts := strings.Split(s, "/")
	for i, part := range parts {
		switch i {
		case 1:
			ea.Service = part
		case 2:
			ea.Rcvr = part
		}
	}
	return ea
}

// NewClientAddr creates and fills new object from string which holds full URL
// of the address, including base address as well.
func NewClientAddr(s string) (*Addr, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("endpoint address %q: %w", s, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint address %q: no scheme or host", s)
	}
	ea := NewServerAddr(u.Path)
	ea.BasePath = u.Scheme + "://" + u.Host
	return ea, nil
}

func (e *Addr) Valid() bool {
	return e.Service != ""
}

func (e *Addr) Address() string {
	basePath := fmt.Sprintf("%s/%s", e.BasePath, e.Service)
	if e.Rcvr != "" {
		basePath += "/" + e.Rcvr
	}
	return strings.TrimSuffix(basePath, "/")
}

func (e *Addr) String() string {
	return e.Address()
}

// Receiver handles an inbound packed message.
type Receiver interface {
	Receive(ctx context.Context, addr *Addr, data []byte) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, addr *Addr, data []byte) error

func (f ReceiverFunc) Receive(ctx context.Context, addr *Addr, data []byte) error {
	return f(ctx, addr, data)
}

// NewHandler returns the handler serving POST /{service} and
// POST /{service}/{rcvr}. hostAddr is the public base address of the server.
func NewHandler(hostAddr, service string, r Receiver) http.Handler {
	router := mux.NewRouter()
	h := func(w http.ResponseWriter, req *http.Request) {
		transport(w, req, hostAddr, r)
	}
	router.HandleFunc("/"+service, h).Methods(http.MethodPost)
	router.HandleFunc("/"+service+"/{rcvr}", h).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodPost},
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
	}).Handler(router)
}

func transport(w http.ResponseWriter, r *http.Request, hostAddr string, rcvr Receiver) {
	ourAddress := NewServerAddr(r.URL.Path)
	ourAddress.BasePath = hostAddr
	glog.V(1).Infoln("===== Aries TRANSPORT =====", ourAddress.Address())

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBody))
	if err != nil {
		glog.Warningln("read body:", err)
		http.Error(w, "cannot read message", http.StatusBadRequest)
		return
	}
	if err := rcvr.Receive(r.Context(), ourAddress, data); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func errorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, envelope.ErrMalformedEnvelope),
		errors.Is(err, envelope.ErrDecryptionFailed):
		glog.Warningln("inbound envelope:", err)
		http.Error(w, "400 - Bad envelope", http.StatusBadRequest)
	case errors.Is(err, trans.ErrTransport):
		glog.Errorln("reply:", err)
		http.Error(w, "502 - Reply failed", http.StatusBadGateway)
	default:
		glog.Errorln("error:", err)
		http.Error(w, "500 - Error", http.StatusInternalServerError)
	}
}
