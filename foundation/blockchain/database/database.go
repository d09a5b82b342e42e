// Package database defines the blocks and transactions that make up the
// ledger and the storage contract every backend must implement.
package database

import (
	"errors"
	"fmt"
)

// Set of error variables for the ledger store.
var (
	ErrNotFound   = errors.New("not found")
	ErrEndOfChain = errors.New("end of chain")
)

// StorageError is returned when the backend failed to perform an operation.
// It wraps the error reported by the underlying store.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps the backend error for the named operation.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface.
func (se *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %s", se.Op, se.Err)
}

// Unwrap provides access to the backend error.
func (se *StorageError) Unwrap() error {
	return se.Err
}

// =============================================================================

// Storage interface represents the behavior required to be implemented by any
// package providing support for reading and writing the blockchain. Blocks
// are keyed by hash and a single record tracks the latest hash.
type Storage interface {
	Find(hash string) (Block, error)
	Append(block Block) error
	LatestHash() (string, error)
	SetLatestHash(hash string) error
	IsEmpty() (bool, error)
	Close() error
}

// LatestHashRecord is the document form of the latest hash pointer.
type LatestHashRecord struct {
	LatestHash string `json:"latestHash"`
}
