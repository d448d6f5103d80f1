package collection

import (
	"fmt"
	"time"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/kvlens/driver"
)

const (
	CommandInsert  = "insert"
	CommandReplace = "replace"
	CommandRemove  = "remove"
)

// Command is one entry of the collection journal.
type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	StartByte int64          `json:"start_byte"`
	Payload   jsontext.Value `json:"payload"`
}

type RowPayload struct {
	I        int64           `json:"i"`
	Document driver.Document `json:"document,omitempty"`
}

func NewCommand(name string, row *Row) (*Command, error) {
	payload := &RowPayload{I: row.I}
	if name != CommandRemove {
		payload.Document = row.Document
	}

	data, err := json2.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	return &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		StartByte: 0,
		Payload:   data,
	}, nil
}

func (c *Command) DecodeRow() (*RowPayload, error) {
	payload := &RowPayload{}
	err := json2.Unmarshal(c.Payload, payload)
	if err != nil {
		return nil, fmt.Errorf("decode '%s' payload: %w", c.Name, err)
	}
	return payload, nil
}
