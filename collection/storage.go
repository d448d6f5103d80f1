package collection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

var ErrStorageClosed = errors.New("storage closed")

type Storage interface {
	// Persist records a mutation. Commands reach the storage in the order
	// they were applied in memory.
	Persist(command *Command) error
	// Load replays every persisted command in order.
	Load(apply func(command *Command) error) error
	Close() error
	// Drop closes the storage and removes everything it persisted.
	Drop() error
}

// --- MemoryStorage ---

type MemoryStorage struct{}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Persist(command *Command) error {
	return nil
}

func (s *MemoryStorage) Load(apply func(command *Command) error) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) Drop() error {
	return nil
}

// --- JSONStorage ---

// JSONStorage appends one JSON encoded command per line. Writes happen in
// background and are flushed on Close.
type JSONStorage struct {
	Filename     string
	file         *os.File
	buffer       *bufio.Writer
	commandQueue chan []byte
	closed       chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

func NewJSONStorage(filename string) (*JSONStorage, error) {
	s := &JSONStorage{
		Filename:     filename,
		commandQueue: make(chan []byte, 1000),
		closed:       make(chan struct{}),
	}

	var err error
	s.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	s.buffer = bufio.NewWriterSize(s.file, 1024*1024)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

func (s *JSONStorage) writerLoop() {
	defer s.wg.Done()
	for {
		select {
		case line := <-s.commandQueue:
			s.buffer.Write(line)

		case <-s.closed:
			// Drain queue
			for {
				select {
				case line := <-s.commandQueue:
					s.buffer.Write(line)
				default:
					return
				}
			}
		}
	}
}

func (s *JSONStorage) Persist(command *Command) error {
	select {
	case <-s.closed:
		return ErrStorageClosed
	default:
	}

	line, err := json2.Marshal(command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}
	line = append(line, '\n')

	select {
	case s.commandQueue <- line:
		return nil
	case <-s.closed:
		return ErrStorageClosed
	}
}

func (s *JSONStorage) Load(apply func(command *Command) error) error {
	f, err := os.Open(s.Filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := jsontext.NewDecoder(bufio.NewReader(f))
	for {
		command := &Command{}
		err := json2.UnmarshalDecode(decoder, command)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// todo: skip a truncated last line instead of failing the whole load?
			return fmt.Errorf("decode command: %w", err)
		}
		err = apply(command)
		if err != nil {
			return err
		}
	}
}

func (s *JSONStorage) Close() error {
	alreadyClosed := true
	s.closeOnce.Do(func() {
		alreadyClosed = false
		close(s.closed)
	})
	if alreadyClosed {
		return nil
	}
	s.wg.Wait()
	s.buffer.Flush()
	return s.file.Close()
}

func (s *JSONStorage) Drop() error {
	err := s.Close()
	if err != nil {
		return err
	}
	return os.Remove(s.Filename)
}
