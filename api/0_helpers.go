package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/kvlens/collection"
	"github.com/fulldump/kvlens/database"
	"github.com/fulldump/kvlens/kv"
	"github.com/fulldump/kvlens/service"
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

type StatusGetter interface {
	GetStatus() string
}

func InterceptorUnavailable(s StatusGetter) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := s.GetStatus()
			if status == database.StatusOpening {
				box.SetError(ctx, fmt.Errorf("temporary unavailable: opening"))
				return
			}
			if status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("temporary unavailable: closing"))
				return
			}
			next(ctx)
		}
	}
}

// errorStatus maps domain errors to an HTTP status and a description.
func errorStatus(ctx context.Context, err error) (int, string) {

	switch {
	case err == ErrUnauthorized:
		return http.StatusUnauthorized, "user is not authenticated"
	case err == box.ErrResourceNotFound:
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	case err == box.ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	switch {
	case errors.Is(err, kv.ErrNotFound):
		return http.StatusNotFound, "key not found"
	case errors.Is(err, kv.ErrNotUnique):
		return http.StatusConflict, "key matches more than one document"
	case errors.Is(err, kv.ErrInvalidKey):
		return http.StatusBadRequest, "invalid key"
	case errors.Is(err, kv.ErrInvalidValue):
		return http.StatusBadRequest, "invalid value"
	case errors.Is(err, kv.ErrPrecondition):
		return http.StatusBadRequest, "invalid arguments"
	case errors.Is(err, kv.ErrWriteNotAllowed):
		return http.StatusConflict, "write not allowed"
	case errors.Is(err, service.ErrorStoreNotFound):
		return http.StatusNotFound, "store not found"
	case errors.Is(err, service.ErrorStoreAlreadyExists):
		return http.StatusConflict, "store already exists"
	case errors.Is(err, service.ErrorInvalidStore):
		return http.StatusBadRequest, "invalid store definition"
	case errors.Is(err, database.ErrInvalidName):
		return http.StatusBadRequest, "invalid collection name"
	case errors.Is(err, collection.ErrDuplicateId):
		return http.StatusConflict, "duplicate identity"
	case errors.Is(err, collection.ErrImmutableId):
		return http.StatusBadRequest, "identity cannot change"
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := errorStatus(ctx, err)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message":     err.Error(),
				"description": description,
			},
		})
	}
}
