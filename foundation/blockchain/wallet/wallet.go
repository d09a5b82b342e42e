// Package wallet loads and creates the password protected key documents
// that identify the owner of an address.
package wallet

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ErrAuthentication is returned when a key document can't be decrypted with
// the provided password or is not a key document at all.
var ErrAuthentication = errors.New("wallet authentication failed")

// Cost selects the scrypt parameters used to encrypt a key document.
type Cost int

// Set of encryption costs.
const (
	StandardCost Cost = iota
	LightCost
)

// =============================================================================

// Wallet holds a decrypted key.
type Wallet struct {
	key *keystore.Key
}

// New generates a new key.
func New() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	key := keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		PrivateKey: privateKey,
	}

	return &Wallet{key: &key}, nil
}

// Load decrypts the key document with the password.
func Load(keyJSON []byte, password string) (*Wallet, error) {
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, err)
	}

	return &Wallet{key: key}, nil
}

// LoadFile reads the key document at the path and decrypts it.
func LoadFile(path string, password string) (*Wallet, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	return Load(keyJSON, password)
}

// Address returns the checksum hex form of the address owned by the key.
func (w *Wallet) Address() string {
	return w.key.Address.Hex()
}

// ID returns the unique id of the key document.
func (w *Wallet) ID() string {
	return w.key.Id.String()
}

// Encrypt returns the key document protected by the password.
func (w *Wallet) Encrypt(password string, cost Cost) ([]byte, error) {
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if cost == LightCost {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}

	keyJSON, err := keystore.EncryptKey(w.key, password, scryptN, scryptP)
	if err != nil {
		return nil, fmt.Errorf("encrypting key: %w", err)
	}

	return keyJSON, nil
}

// Save encrypts the key document and writes it to the path.
func (w *Wallet) Save(path string, password string, cost Cost) error {
	keyJSON, err := w.Encrypt(password, cost)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, keyJSON, 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}

	return nil
}
