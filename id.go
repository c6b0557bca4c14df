package ledger

import "github.com/xraph/freightledger/id"

// ID identifies drafts and stored rows.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
