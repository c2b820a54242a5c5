// Package trans is the outbound transport capability. HTTP POSTs the packed
// messages to the peer's service endpoint.
package trans

//go:generate mockgen -destination mock_trans/mock_trans.go github.com/findy-network/findy-didcomm/agent/trans Transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const (
	// ContentType is the DIDComm v1 wire content type Aries agents accept.
	ContentType = "application/ssi-agent-wire"

	// errorMessageMaxLength is the maximum length of the response body we
	// include into the generated error message
	errorMessageMaxLength = 80
)

var ErrTransport = errors.New("transport")

// Transport sends packed bytes to a service endpoint. Receiving is done by
// the caller, see package endp.
type Transport interface {
	Send(ctx context.Context, endpoint string, data []byte) error
}

// HTTP is a Transport that retries network errors and 5xx responses with
// exponential backoff. Other non 2xx responses fail at once.
type HTTP struct {
	Client *http.Client

	// MaxElapsed limits the total retry time, zero means no retries.
	MaxElapsed time.Duration
}

// NewHTTP returns a transport with per request timeout from the settings.
func NewHTTP(maxElapsed time.Duration) *HTTP {
	return &HTTP{
		Client:     &http.Client{Timeout: utils.Settings.Timeout()},
		MaxElapsed: maxElapsed,
	}
}

func (h *HTTP) Send(ctx context.Context, endpoint string, data []byte) (err error) {
	defer err2.Handle(&err, "send to %s", endpoint)

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = h.MaxElapsed
	var policy backoff.BackOff = b
	if h.MaxElapsed == 0 {
		policy = &backoff.StopBackOff{}
	}

	try.To(backoff.RetryNotify(func() error {
		return h.post(ctx, endpoint, data)
	}, backoff.WithContext(policy, ctx), func(err error, d time.Duration) {
		glog.Warningf("retry in %v: %v", d, err)
	}))
	return nil
}

func (h *HTTP) post(ctx context.Context, endpoint string, data []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrTransport, err))
	}
	request.Header.Set("Content-Type", ContentType)

	response, err := h.Client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()
	body, _ := io.ReadAll(response.Body)
	glog.V(3).Infoln("POST", endpoint, response.Status)

	if err := checkHTTPStatus(response, body); err != nil {
		if response.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return backoff.Permanent(err)
	}
	return nil
}

// checkHTTPStatus checks the status code and gets the server message
func checkHTTPStatus(response *http.Response, data []byte) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	contentType := response.Header.Get("Content-Type")
	// from our server: text/plain; charset=utf-8
	if strings.HasPrefix(contentType, "text/plain") {
		return fmt.Errorf("%w: %s: %s", ErrTransport, response.Status,
			data[:min(errorMessageMaxLength, len(data))])
	}
	return fmt.Errorf("%w: %s", ErrTransport, response.Status)
}
