package kv

import (
	"errors"
	"fmt"

	json2 "github.com/go-json-experiment/json"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotUnique          = errors.New("key is not unique")
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidValue       = errors.New("invalid value")
	ErrPrecondition       = errors.New("precondition violation")
	ErrUnrecognizedResult = errors.New("unrecognized write result")
	ErrWriteNotAllowed    = errors.New("write not allowed")
)

// Error carries the kind of failure together with the offending key and
// value. errors.Is(err, ErrNotUnique) matches on the kind.
type Error struct {
	Kind   error
	Key    Document
	Value  Document
	Reason string
}

func (e *Error) Error() string {
	s := e.Kind.Error()
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	if e.Key != nil {
		s += " (key " + render(e.Key) + ")"
	}
	if e.Value != nil {
		s += " (value " + render(e.Value) + ")"
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func render(doc Document) string {
	data, err := json2.Marshal(doc, json2.Deterministic(true))
	if err != nil {
		return fmt.Sprint(doc)
	}
	return string(data)
}

func preconditionError(reason string) error {
	return &Error{Kind: ErrPrecondition, Reason: reason}
}
