/*
Package server encapsulates the http server entry point of the agent. It
serves the DIDComm endpoint and a version probe.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/findy-network/findy-didcomm/agent/endp"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/golang/glog"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// NewHandler returns the routes of the agent. Messages to the service path
// go to the receiver.
func NewHandler(serviceName string, rcvr endp.Receiver) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if glog.V(5) {
			glog.Info("/version requested")
		}
		_, _ = w.Write([]byte(utils.Version))
	}).Methods(http.MethodGet)

	h := endp.NewHandler(utils.Settings.HostAddr(), serviceName, rcvr)
	router.PathPrefix("/" + serviceName).Handler(h)
	return router
}

// New builds the server listening the server port.
func New(serverPort uint, serviceName string, rcvr endp.Receiver) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%v", serverPort),
		Handler:           NewHandler(serviceName, rcvr),
		ReadHeaderTimeout: utils.Settings.Timeout(),
	}
}

// Serve runs the server until the context is done and shuts it down then.
// The function blocks.
func Serve(ctx context.Context, srv *http.Server) error {
	glog.V(1).Infof("HTTP Server on %s", srv.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	glog.V(1).Infoln("shutting down HTTP server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// BuildHostAddr sets the public host address of the settings, the one the
// endpoints in the invitations use. hostPort is the port the world sees.
func BuildHostAddr(scheme string, hostPort uint) {
	if hostPort != 80 && hostPort != 443 {
		hostAddr := fmt.Sprintf("%s://%s:%v", scheme, utils.Settings.HostAddr(), hostPort)
		utils.Settings.SetHostAddr(hostAddr)
	} else {
		hostAddr := fmt.Sprintf("%s://%s", scheme, utils.Settings.HostAddr())
		utils.Settings.SetHostAddr(hostAddr)
	}
}

// Endpoint returns the public address of the service.
func Endpoint(serviceName string) string {
	ea := endp.Addr{BasePath: utils.Settings.HostAddr(), Service: serviceName}
	return ea.Address()
}
