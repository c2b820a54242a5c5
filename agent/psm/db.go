package psm

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketRecord byte = 0 + iota
	bucketIndex
)

var buckets = [][]byte{
	{bucketRecord},
	{bucketIndex},
}

// DB is a Store on a bolt file.
type DB struct {
	db *bolt.DB
}

// Open opens or creates the bolt file by name.
func Open(filename string) (_ *DB, err error) {
	defer err2.Handle(&err, "open psm db %s", filename)

	db := try.To1(bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second}))
	err = db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)
		for _, bucket := range buckets {
			try.To1(tx.CreateBucketIfNotExists(bucket))
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	glog.V(2).Infoln("psm db opened:", filename)
	return &DB{db: db}, nil
}

func (d *DB) Save(_ context.Context, r *Record) (err error) {
	defer err2.Handle(&err, "save %s", r.ID)

	data := r.Data()
	return d.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		try.To(tx.Bucket(buckets[bucketRecord]).Put([]byte(r.ID), data))
		index := tx.Bucket(buckets[bucketIndex])
		for _, k := range r.Threads {
			try.To(index.Put([]byte(k), []byte(r.ID)))
		}
		return nil
	})
}

func (d *DB) Get(_ context.Context, id string) (r *Record, err error) {
	defer err2.Handle(&err, "get %s", id)

	try.To(d.db.View(func(tx *bolt.Tx) (err error) {
		r, err = getRecord(tx, []byte(id))
		return err
	}))
	return r, nil
}

func (d *DB) Find(_ context.Context, thread string) (r *Record, err error) {
	defer err2.Handle(&err, "find %s", thread)

	try.To(d.db.View(func(tx *bolt.Tx) (err error) {
		id := tx.Bucket(buckets[bucketIndex]).Get([]byte(thread))
		if id == nil {
			return ErrNotFound
		}
		r, err = getRecord(tx, id)
		return err
	}))
	return r, nil
}

// getRecord decodes the record inside the transaction, bolt's byte slices
// aren't valid after it.
func getRecord(tx *bolt.Tx, id []byte) (*Record, error) {
	d := tx.Bucket(buckets[bucketRecord]).Get(id)
	if d == nil {
		return nil, ErrNotFound
	}
	return NewRecordFromData(d)
}

func (d *DB) List(_ context.Context) (rs []*Record, err error) {
	defer err2.Handle(&err, "list")

	try.To(d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(buckets[bucketRecord]).ForEach(func(_, v []byte) error {
			r, err := NewRecordFromData(v)
			if err != nil {
				return err
			}
			rs = append(rs, r)
			return nil
		})
	}))
	sortRecords(rs)
	return rs, nil
}

func (d *DB) Remove(_ context.Context, id string) (err error) {
	defer err2.Handle(&err, "remove %s", id)

	return d.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		r := try.To1(getRecord(tx, []byte(id)))
		index := tx.Bucket(buckets[bucketIndex])
		for _, k := range r.Threads {
			if string(index.Get([]byte(k))) == id {
				try.To(index.Delete([]byte(k)))
			}
		}
		return tx.Bucket(buckets[bucketRecord]).Delete([]byte(id))
	})
}

func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close psm db: %w", err)
	}
	return nil
}
