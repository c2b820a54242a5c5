// Package vdr is the DID resolver and ledger read capability. Registry is an
// in-memory implementation that also resolves did:key DIDs.
package vdr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/findy-network/findy-didcomm/std/did"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNotFound = errors.New("not found from registry")

// Resolver resolves a DID to its document.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*did.Doc, error)
}

// Ledger reads the objects the anoncreds capability needs. Payloads are
// opaque JSON.
type Ledger interface {
	ReadSchema(ctx context.Context, id string) ([]byte, error)
	ReadCredDef(ctx context.Context, id string) ([]byte, error)
	ReadRevRegStatus(ctx context.Context, id string, timestamp int64) ([]byte, error)
}

const (
	methodKey = "did:key:"
	methodSov = "did:sov:"
)

// Registry is a concurrency safe in-memory Resolver and Ledger.
type Registry struct {
	l       sync.RWMutex
	docs    map[string][]byte
	objects map[string][]byte
}

func New() *Registry {
	return &Registry{
		docs:    make(map[string][]byte),
		objects: make(map[string][]byte),
	}
}

// Register stores the document by its id. The document must be usable for
// addressing.
func (r *Registry) Register(doc *did.Doc) (err error) {
	defer err2.Handle(&err, "register %s", doc.ID)

	try.To(doc.Validate())
	data := try.To1(json.Marshal(doc))

	r.l.Lock()
	defer r.l.Unlock()
	r.docs[doc.ID] = data
	glog.V(3).Infoln("registered", doc.ID)
	return nil
}

// Resolve returns a fresh copy of the document, each caller owns its copy.
// Unqualified DIDs are tried with the sov method too.
func (r *Registry) Resolve(_ context.Context, id string) (_ *did.Doc, err error) {
	defer err2.Handle(&err, "resolve %s", id)

	id, _, _ = strings.Cut(id, "#")
	if strings.HasPrefix(id, methodKey) {
		vk := try.To1(did.KeyFromKeyDID(id))
		return did.NewDoc(id, vk, ""), nil
	}

	r.l.RLock()
	data, ok := r.docs[id]
	if !ok && !strings.HasPrefix(id, "did:") {
		data, ok = r.docs[methodSov+id]
	}
	r.l.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	doc := new(did.Doc)
	try.To(json.Unmarshal(data, doc))
	return doc, nil
}

// Put stores a ledger object, e.g. a schema or a credential definition.
func (r *Registry) Put(id string, data []byte) {
	r.l.Lock()
	defer r.l.Unlock()
	r.objects[id] = append([]byte(nil), data...)
}

// PutRevRegStatus stores the revocation registry status valid at timestamp.
func (r *Registry) PutRevRegStatus(id string, timestamp int64, data []byte) {
	r.Put(revRegKey(id, timestamp), data)
}

func (r *Registry) ReadSchema(_ context.Context, id string) ([]byte, error) {
	return r.object("schema", id)
}

func (r *Registry) ReadCredDef(_ context.Context, id string) ([]byte, error) {
	return r.object("cred def", id)
}

func (r *Registry) ReadRevRegStatus(_ context.Context, id string, timestamp int64) ([]byte, error) {
	return r.object("rev reg", revRegKey(id, timestamp))
}

func (r *Registry) object(what, id string) ([]byte, error) {
	r.l.RLock()
	defer r.l.RUnlock()

	data, ok := r.objects[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func revRegKey(id string, timestamp int64) string {
	return fmt.Sprintf("%s@%d", id, timestamp)
}
