package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fulldump/kvlens/collection"
	"github.com/fulldump/kvlens/utils"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const (
	StorageJSON   = "json"
	StorageBolt   = "bolt"
	StorageMemory = "memory"
)

const boltExtension = ".bolt"

var (
	ErrCollectionNotFound      = errors.New("collection not found")
	ErrCollectionAlreadyExists = errors.New("collection already exists")
	ErrInvalidName             = errors.New("invalid collection name")
)

type Config struct {
	Dir     string
	Storage string // json (default), bolt or memory
}

type Database struct {
	Config      *Config
	status      string
	Collections map[string]*collection.Collection
	mutex       *sync.RWMutex
	exit        chan struct{}
}

func NewDatabase(config *Config) *Database {
	if config.Storage == "" {
		config.Storage = StorageJSON
	}

	s := &Database{
		Config:      config,
		status:      StatusOpening,
		Collections: map[string]*collection.Collection{},
		mutex:       &sync.RWMutex{},
		exit:        make(chan struct{}),
	}

	return s
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\:`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}
	return nil
}

func (db *Database) openStorage(name string) (collection.Storage, error) {
	switch db.Config.Storage {
	case StorageMemory:
		return collection.NewMemoryStorage(), nil
	case StorageBolt:
		return collection.NewBoltStorage(path.Join(db.Config.Dir, name+boltExtension))
	case StorageJSON:
		return collection.NewJSONStorage(path.Join(db.Config.Dir, name))
	}
	return nil, fmt.Errorf("unknown storage '%s'", db.Config.Storage)
}

func (db *Database) CreateCollection(name string) (*collection.Collection, error) {

	if err := validName(name); err != nil {
		return nil, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	_, exists := db.Collections[name]
	if exists {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionAlreadyExists, name)
	}

	return db.create(name)
}

func (db *Database) create(name string) (*collection.Collection, error) {
	storage, err := db.openStorage(name)
	if err != nil {
		return nil, err
	}

	col, err := collection.OpenCollection(name, storage)
	if err != nil {
		return nil, err
	}

	db.Collections[name] = col

	return col, nil
}

func (db *Database) GetCollection(name string) (*collection.Collection, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	col, exists := db.Collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, name)
	}
	return col, nil
}

// Collection returns the named collection, creating it when missing.
func (db *Database) Collection(name string) (*collection.Collection, error) {

	if err := validName(name); err != nil {
		return nil, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	col, exists := db.Collections[name]
	if exists {
		return col, nil
	}

	return db.create(name)
}

func (db *Database) ListCollections() []string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return utils.GetKeys(db.Collections)
}

func (db *Database) DropCollection(name string) error {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	col, exists := db.Collections[name]
	if !exists {
		return fmt.Errorf("%w: '%s'", ErrCollectionNotFound, name)
	}

	delete(db.Collections, name)

	return col.Drop()
}

func (db *Database) Load() error {

	dir := db.Config.Dir
	if db.Config.Storage == StorageMemory {
		db.setStatus(StatusOperating)
		return nil
	}

	log.Printf("Loading database %s...\n", dir)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if filename == dir {
				return nil
			}
			return filepath.SkipDir
		}

		name := strings.TrimPrefix(filename, dir)
		name = strings.TrimPrefix(name, "/")

		isBolt := strings.HasSuffix(name, boltExtension)
		if isBolt != (db.Config.Storage == StorageBolt) {
			return nil
		}
		name = strings.TrimSuffix(name, boltExtension)
		if validName(name) != nil {
			return nil
		}

		t0 := time.Now()
		db.mutex.Lock()
		col, err := db.create(name)
		db.mutex.Unlock()
		if err != nil {
			log.Printf("ERROR: open collection '%s': %s\n", filename, err.Error())
			return err
		}
		log.Println(name, col.Len(), time.Since(t0))

		return nil
	})

	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.setStatus(StatusOperating)

	return nil
}

func (db *Database) Start() error {

	go db.Load()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.setStatus(StatusClosing)

	db.mutex.Lock()
	defer db.mutex.Unlock()

	var lastErr error
	for name, col := range db.Collections {
		log.Printf("Closing '%s'...\n", name)
		err := col.Close()
		if err != nil {
			log.Printf("ERROR: close(%s): %s\n", name, err.Error())
			lastErr = err
		}
	}

	return lastErr
}
