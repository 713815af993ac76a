package vault

import "github.com/xraph/vault/id"

// ID is the primary identifier type for all Vault entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
