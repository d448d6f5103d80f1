package collection

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/fulldump/kvlens/driver"
)

var rowsBucket = []byte("rows")

// BoltStorage keeps the current state of every row in a bbolt file, one
// msgpack value per row keyed by its sequence number. Replays only yield
// inserts.
type BoltStorage struct {
	Filename string
	db       *bbolt.DB
}

func NewBoltStorage(filename string) (*BoltStorage, error) {
	db, err := bbolt.Open(filename, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rowsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStorage{
		Filename: filename,
		db:       db,
	}, nil
}

func rowKey(i int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

func (s *BoltStorage) Persist(command *Command) error {
	payload, err := command.DecodeRow()
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(rowsBucket)
		switch command.Name {
		case CommandInsert, CommandReplace:
			value, err := msgpack.Marshal(payload.Document)
			if err != nil {
				return fmt.Errorf("msgpack encode row %d: %w", payload.I, err)
			}
			return bucket.Put(rowKey(payload.I), value)
		case CommandRemove:
			return bucket.Delete(rowKey(payload.I))
		}
		return fmt.Errorf("unexpected command '%s'", command.Name)
	})
}

func (s *BoltStorage) Load(apply func(command *Command) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(rowsBucket).ForEach(func(k, v []byte) error {
			document := driver.Document{}
			err := msgpack.Unmarshal(v, &document)
			if err != nil {
				return fmt.Errorf("msgpack decode row: %w", err)
			}

			// back to JSON so numbers come out the same way the journal yields them
			data, err := json2.Marshal(&RowPayload{
				I:        int64(binary.BigEndian.Uint64(k)),
				Document: document,
			})
			if err != nil {
				return fmt.Errorf("json encode row: %w", err)
			}

			return apply(&Command{
				Name:    CommandInsert,
				Payload: data,
			})
		})
	})
}

func (s *BoltStorage) Close() error {
	return s.db.Close()
}

func (s *BoltStorage) Drop() error {
	err := s.db.Close()
	if err != nil {
		return err
	}
	return os.Remove(s.Filename)
}
