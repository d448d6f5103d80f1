package collection

import (
	"fmt"

	"github.com/fulldump/kvlens/projection"
)

func LoadCollection(c *Collection) error {
	return c.storage.Load(func(command *Command) error {
		payload, err := command.DecodeRow()
		if err != nil {
			return err
		}

		if payload.I > c.MaxID {
			c.MaxID = payload.I
		}

		switch command.Name {
		case CommandInsert:
			if payload.Document == nil {
				return fmt.Errorf("insert row %d without document", payload.I)
			}
			row := &Row{I: payload.I, Document: payload.Document}
			c.Rows.ReplaceOrInsert(row)
			c.ids[idKey(row.Document[projection.IdField])] = row

		case CommandReplace:
			actual, ok := c.Rows.Get(&Row{I: payload.I})
			if !ok {
				return fmt.Errorf("replace row %d: not found", payload.I)
			}
			actual.Document = payload.Document

		case CommandRemove:
			actual, ok := c.Rows.Get(&Row{I: payload.I})
			if ok {
				c.Rows.Delete(actual)
				delete(c.ids, idKey(actual.Document[projection.IdField]))
			}

		default:
			return fmt.Errorf("unexpected command '%s'", command.Name)
		}

		return nil
	})
}
