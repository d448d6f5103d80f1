package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/kvlens/utils"
)

var (
	ErrorStoreNotFound      = errors.New("store not found")
	ErrorStoreAlreadyExists = errors.New("store already exists")
	ErrorInvalidStore       = errors.New("invalid store")
)

type Servicer interface {
	CreateStore(ctx context.Context, definition *StoreDefinition) (*Store, error)
	GetStore(name string) (*Store, error)
	ListStores() []*Store
	DeleteStore(name string) error
	ListCollections(ctx context.Context) ([]string, error)
	GetStatus() string
}

type Service struct {
	backend    Backend
	storesFile string
	stores     map[string]*Store
	mutex      *sync.RWMutex
}

// NewService serves stores over backend. When storesFile is not empty the
// definitions are kept there.
func NewService(backend Backend, storesFile string) *Service {
	return &Service{
		backend:    backend,
		storesFile: storesFile,
		stores:     map[string]*Store{},
		mutex:      &sync.RWMutex{},
	}
}

func (s *Service) ListCollections(ctx context.Context) ([]string, error) {
	return s.backend.ListCollections(ctx)
}

func (s *Service) GetStatus() string {
	return s.backend.GetStatus()
}

// LoadStores reads the definitions file, if there is one.
func (s *Service) LoadStores(ctx context.Context) error {
	if s.storesFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.storesFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read stores file: %w", err)
	}

	definitions := []*StoreDefinition{}
	err = json2.Unmarshal(data, &definitions)
	if err != nil {
		return fmt.Errorf("decode stores file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, definition := range definitions {
		_, err := s.create(ctx, definition)
		if err != nil {
			return fmt.Errorf("store '%s': %w", definition.Name, err)
		}
	}
	log.Println("loaded", len(definitions), "stores")

	return nil
}

func (s *Service) saveStores() error {
	if s.storesFile == "" {
		return nil
	}

	definitions := make([]*StoreDefinition, 0, len(s.stores))
	for _, name := range utils.GetKeys(s.stores) {
		definitions = append(definitions, s.stores[name].Definition)
	}

	data, err := json2.Marshal(definitions, jsontext.WithIndent("    "))
	if err != nil {
		return err
	}

	return os.WriteFile(s.storesFile, data, 0666)
}

func (s *Service) create(ctx context.Context, definition *StoreDefinition) (*Store, error) {
	if _, exists := s.stores[definition.Name]; exists {
		return nil, ErrorStoreAlreadyExists
	}

	definition.setDefaults()
	if err := definition.validate(); err != nil {
		return nil, err
	}

	collection, err := s.backend.Collection(ctx, definition.Collection)
	if err != nil {
		return nil, err
	}

	store, err := newStore(collection, definition)
	if err != nil {
		return nil, err
	}

	s.stores[definition.Name] = store

	return store, nil
}

func (s *Service) CreateStore(ctx context.Context, definition *StoreDefinition) (*Store, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	store, err := s.create(ctx, definition)
	if err != nil {
		return nil, err
	}

	return store, s.saveStores()
}

func (s *Service) GetStore(name string) (*Store, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	store, exists := s.stores[name]
	if !exists {
		return nil, ErrorStoreNotFound
	}
	return store, nil
}

func (s *Service) ListStores() []*Store {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]*Store, 0, len(s.stores))
	for _, name := range utils.GetKeys(s.stores) {
		result = append(result, s.stores[name])
	}
	return result
}

// DeleteStore forgets the definition. The documents stay in the collection.
func (s *Service) DeleteStore(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.stores[name]; !exists {
		return ErrorStoreNotFound
	}
	delete(s.stores, name)

	return s.saveStores()
}
