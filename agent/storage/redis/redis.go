// Package redis implements psm.Store on Redis for agents that share their
// protocol runs between processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/findy-network/findy-didcomm/agent/psm"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "fdc:"

// Store keeps a record as JSON under run:<id>, a thread index key under
// thread:<key> and the ids of all runs in the set runs.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// New returns a store using rdb. All keys get the prefix, DefaultPrefix if
// empty.
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) runKey(id string) string {
	return s.prefix + "run:" + id
}

func (s *Store) threadKey(k string) string {
	return s.prefix + "thread:" + k
}

func (s *Store) runsKey() string {
	return s.prefix + "runs"
}

func (s *Store) Save(ctx context.Context, r *psm.Record) (err error) {
	defer err2.Handle(&err, "redis save %s", r.ID)

	data := try.To1(json.Marshal(r))
	_ = try.To1(s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.runKey(r.ID), data, 0)
		pipe.SAdd(ctx, s.runsKey(), r.ID)
		for _, k := range r.Threads {
			pipe.Set(ctx, s.threadKey(k), r.ID, 0)
		}
		return nil
	}))
	glog.V(3).Infoln("redis saved", r.ID, r.StateName)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (r *psm.Record, err error) {
	defer err2.Handle(&err, "redis get %s", id)

	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (*psm.Record, error) {
	v, err := s.rdb.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, psm.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r psm.Record
	if err := json.Unmarshal(v, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Find(ctx context.Context, thread string) (r *psm.Record, err error) {
	defer err2.Handle(&err, "redis find %s", thread)

	id, err := s.rdb.Get(ctx, s.threadKey(thread)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, psm.ErrNotFound
	}
	try.To(err)
	return s.get(ctx, id)
}

func (s *Store) List(ctx context.Context) (rs []*psm.Record, err error) {
	defer err2.Handle(&err, "redis list")

	ids := try.To1(s.rdb.SMembers(ctx, s.runsKey()).Result())
	rs = make([]*psm.Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.get(ctx, id)
		if errors.Is(err, psm.ErrNotFound) {
			continue
		}
		try.To(err)
		rs = append(rs, r)
	}
	return rs, nil
}

func (s *Store) Remove(ctx context.Context, id string) (err error) {
	defer err2.Handle(&err, "redis remove %s", id)

	r := try.To1(s.get(ctx, id))
	keys := []string{s.runKey(id)}
	for _, k := range r.Threads {
		owner, err := s.rdb.Get(ctx, s.threadKey(k)).Result()
		if err == nil && owner == id {
			keys = append(keys, s.threadKey(k))
		}
	}
	_ = try.To1(s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, s.runsKey(), id)
		return nil
	}))
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
