package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/freightledger/id"
	"github.com/xraph/freightledger/store"
)

type rowModel struct {
	grove.BaseModel `grove:"table:freightledger_rows"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	TableName string    `grove:"table_name" bson:"table_name"`
	Seq       int64     `grove:"seq"        bson:"seq"`
	Cells     []string  `grove:"cells"      bson:"cells"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toRowModel(table store.Table, seq int64, row store.Row) *rowModel {
	t := now()
	cells := []string(row.Clone())
	return &rowModel{
		ID:        id.NewRowID().String(),
		TableName: string(table),
		Seq:       seq,
		Cells:     cells,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

func fromRowModel(m *rowModel) store.Row {
	if m.Cells == nil {
		return store.Row{}
	}
	return store.Row(m.Cells).Clone()
}
