package weft

import "github.com/xraph/weft/id"

// ID is the primary identifier type for all weft entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
