package psm

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"time"

	"github.com/findy-network/findy-didcomm/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Record is the persistent form of one protocol run. State is the JSON of
// the protocol's state union; the engine doesn't interpret it. ConnectionID
// is the run of the connection an issuance or presentation runs over.
type Record struct {
	ID           string
	Protocol     string
	Role         string
	ConnectionID string
	StateName    string
	State        []byte
	Threads      []string
	Terminal     bool
	Updated      time.Time
}

// NewRecord creates a record for a new run of the protocol.
func NewRecord(protocol, role string, m Machine) (r *Record, err error) {
	r = &Record{
		ID:       utils.UUID(),
		Protocol: protocol,
		Role:     role,
	}
	if err = r.Update(m); err != nil {
		return nil, err
	}
	return r, nil
}

// Update stores m as the run's current state. The thread index keys are
// accumulated, a run stays findable with the keys it has had.
func (r *Record) Update(m Machine) (err error) {
	defer err2.Handle(&err, "record %s update", r.ID)

	r.State = try.To1(json.Marshal(m))
	r.StateName = m.StateName()
	r.Terminal = m.Terminal()
	r.Updated = time.Now()
	if key := m.Thread(); key != nil {
		r.Index(key.Index()...)
	}
	return nil
}

// Index adds lookup keys which aren't thread ids, e.g. keys of the peer.
func (r *Record) Index(keys ...string) {
	for _, k := range keys {
		if !contains(r.Threads, k) {
			r.Threads = append(r.Threads, k)
		}
	}
}

// Load reads the state of the run into m.
func (r *Record) Load(m Machine) (err error) {
	defer err2.Handle(&err, "record %s load", r.ID)
	try.To(json.Unmarshal(r.State, m))
	return nil
}

func (r *Record) Data() []byte {
	var buf bytes.Buffer
	try.To(gob.NewEncoder(&buf).Encode(r))
	return buf.Bytes()
}

func NewRecordFromData(d []byte) (r *Record, err error) {
	defer err2.Handle(&err, "record decode")
	r = new(Record)
	try.To(gob.NewDecoder(bytes.NewReader(d)).Decode(r))
	return r, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
