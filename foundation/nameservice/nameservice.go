// Package nameservice reads the wallet folder and provides a name lookup
// for the addresses of the keys stored there. A key file named kennedy.json
// gives its address the name kennedy.
package nameservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownName is returned when no key file exists for a name.
var ErrUnknownName = errors.New("unknown name")

// NameService maintains the names of the addresses found in the folder.
type NameService struct {
	accounts  map[string]string
	addresses map[string]string
	paths     map[string]string
}

// New constructs a name service with the key files found in the folder.
// The address is read from the key document so no password is needed.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts:  make(map[string]string),
		addresses: make(map[string]string),
		paths:     make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != ".json" {
			return nil
		}

		address, err := readAddress(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		name := strings.TrimSuffix(filepath.Base(fileName), ".json")
		ns.accounts[address] = name
		ns.addresses[name] = address
		ns.paths[name] = fileName

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the address or the address itself when the
// address has no name.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.accounts[common.HexToAddress(address).Hex()]
	if !exists {
		return address
	}
	return name
}

// Address returns the address of the name.
func (ns *NameService) Address(name string) (string, error) {
	address, exists := ns.addresses[name]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return address, nil
}

// Path returns the key file of the name.
func (ns *NameService) Path(name string) (string, error) {
	path, exists := ns.paths[name]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return path, nil
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.accounts))
	for address, name := range ns.accounts {
		cpy[address] = name
	}
	return cpy
}

// =============================================================================

// readAddress returns the checksum address recorded in a key document.
func readAddress(fileName string) (string, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return "", err
	}

	var doc struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("decoding key document: %w", err)
	}

	if !common.IsHexAddress(doc.Address) {
		return "", fmt.Errorf("invalid address %q", doc.Address)
	}

	return common.HexToAddress(doc.Address).Hex(), nil
}
