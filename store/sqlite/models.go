package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/freightledger/id"
	"github.com/xraph/freightledger/store"
)

// rowModel holds one data row of a ledger table. Rows of a table are
// ordered by seq; cells are a JSON array of strings.
type rowModel struct {
	grove.BaseModel `grove:"table:freightledger_rows"`

	ID        string    `grove:"id,pk"`
	TableName string    `grove:"table_name"`
	Seq       int64     `grove:"seq"`
	Cells     string    `grove:"cells"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
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
	var row store.Row
	if err := json.Unmarshal([]byte(m.Cells), &row); err != nil {
		return nil, fmt.Errorf("freightledger/sqlite: decode row %s: %w", m.ID, err)
	}
	return row, nil
}

func encodeCells(row store.Row) (string, error) {
	if row == nil {
		row = store.Row{}
	}
	b, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("freightledger/sqlite: encode row: %w", err)
	}
	return string(b), nil
}
