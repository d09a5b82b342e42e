package nameservice_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	t.Log("Given the need to name the addresses of the wallet folder.")
	{
		root := t.TempDir()

		names := []string{"kennedy", "pavel"}
		addresses := make(map[string]string)
		for _, name := range names {
			w, err := wallet.New()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
			}
			if err := w.Save(filepath.Join(root, name+".json"), "secret", wallet.LightCost); err != nil {
				t.Fatalf("\t%s\tShould be able to save a key: %v", failed, err)
			}
			addresses[name] = w.Address()
		}
		if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("keys"), 0600); err != nil {
			t.Fatalf("\t%s\tShould be able to write a stray file: %v", failed, err)
		}

		ns, err := nameservice.New(root)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the folder: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to read the folder.", success)

		for testID, name := range names {
			if got := ns.Lookup(addresses[name]); got != name {
				t.Fatalf("\t%s\tTest %d:\tShould name %s: got %q", failed, testID, addresses[name], got)
			}
			if got := ns.Lookup(strings.ToLower(addresses[name])); got != name {
				t.Fatalf("\t%s\tTest %d:\tShould ignore the address case: got %q", failed, testID, got)
			}
			if got, err := ns.Address(name); err != nil || got != addresses[name] {
				t.Fatalf("\t%s\tTest %d:\tShould know the address of %s: %q %v", failed, testID, name, got, err)
			}
			path, err := ns.Path(name)
			if err != nil || filepath.Base(path) != name+".json" {
				t.Fatalf("\t%s\tTest %d:\tShould know the key file of %s: %q %v", failed, testID, name, path, err)
			}
			t.Logf("\t%s\tTest %d:\tShould name %s.", success, testID, name)
		}

		unknown := "0x0000000000000000000000000000000000000001"
		if got := ns.Lookup(unknown); got != unknown {
			t.Fatalf("\t%s\tShould return an unnamed address as is: got %q", failed, got)
		}
		if _, err := ns.Path("bill"); !errors.Is(err, nameservice.ErrUnknownName) {
			t.Fatalf("\t%s\tShould fail for an unknown name: %v", failed, err)
		}
		t.Logf("\t%s\tShould handle unknown names and addresses.", success)

		if len(ns.Copy()) != len(names) {
			t.Fatalf("\t%s\tShould copy every name: got %d", failed, len(ns.Copy()))
		}
		t.Logf("\t%s\tShould copy every name.", success)
	}
}
