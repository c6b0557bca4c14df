package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/freightledger/id"
	"github.com/xraph/freightledger/store"
)

type rowModel struct {
	grove.BaseModel `grove:"table:freightledger_rows"`

	ID        string          `grove:"id,pk"`
	TableName string          `grove:"table_name"`
	Seq       int64           `grove:"seq"`
	Cells     json.RawMessage `grove:"cells,type:jsonb"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toRowModel(table store.Table, seq int64, row store.Row) (*rowModel, error) {
	cells, err := encodeCells(row)
	if err != nil {
		return nil, err
	}
	t := now()
	return &rowModel{
		ID:        id.NewRowID().String(),
		TableName: string(table),
		Seq:       seq,
		Cells:     cells,
		CreatedAt: t,
		UpdatedAt: t,
	}, nil
}

func fromRowModel(m *rowModel) (store.Row, error) {
	row := store.Row{}
	if len(m.Cells) == 0 {
		return row, nil
	}
	if err := json.Unmarshal(m.Cells, &row); err != nil {
		return nil, fmt.Errorf("freightledger/postgres: decode row %s: %w", m.ID, err)
	}
	return row, nil
}

func encodeCells(row store.Row) (json.RawMessage, error) {
	if row == nil {
		row = store.Row{}
	}
	b, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("freightledger/postgres: encode row: %w", err)
	}
	return b, nil
}
