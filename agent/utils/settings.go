package utils

import (
	"flag"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
)

const HTTPReqTimeout = 1 * time.Minute

var Version = "0.1.0"

var Settings = &Hub{timeout: HTTPReqTimeout}

// Hub keeps the runtime settings of the agent process.
type Hub struct {
	l sync.RWMutex

	serviceName string        // URL path of the inbound DIDComm endpoint
	hostAddr    string        // host name of the server seen from the internet
	hostPort    uint          // port seen from the internet
	timeout     time.Duration // timeout setting for http requests
	label       string        // our label in invitations and requests
}

func (h *Hub) ServiceName() string {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.serviceName
}

func (h *Hub) SetServiceName(name string) {
	h.l.Lock()
	defer h.l.Unlock()
	h.serviceName = name
}

func (h *Hub) HostAddr() string {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.hostAddr
}

func (h *Hub) SetHostAddr(addr string) {
	h.l.Lock()
	defer h.l.Unlock()
	h.hostAddr = addr
}

func (h *Hub) HostPort() uint {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.hostPort
}

func (h *Hub) SetHostPort(port uint) {
	h.l.Lock()
	defer h.l.Unlock()
	h.hostPort = port
}

func (h *Hub) Timeout() time.Duration {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.timeout
}

func (h *Hub) SetTimeout(t time.Duration) {
	h.l.Lock()
	defer h.l.Unlock()
	glog.V(3).Infoln("setting http timeout:", t)
	h.timeout = t
}

func (h *Hub) Label() string {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.label
}

func (h *Hub) SetLabel(label string) {
	h.l.Lock()
	defer h.l.Unlock()
	h.label = label
}

// ParseLoggingArgs sets glog flags from a single string like
// "-logtostderr=true -v=2".
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = "logging"
	args = append(args, strings.Fields(s)...)
	if err := flag.CommandLine.Parse(args[1:]); err != nil {
		glog.Warningln("logging args:", err)
	}
}
