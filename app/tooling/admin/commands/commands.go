// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Storage is the block storage the commands work against.
type Storage = database.Storage
