package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new password protected key",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	if password == "" {
		log.Fatal("a password is required")
	}

	path := getKeyPath()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("wallet %s already exists", path)
	}

	if err := os.MkdirAll(walletPath, 0755); err != nil {
		log.Fatal(err)
	}

	w, err := wallet.New()
	if err != nil {
		log.Fatal(err)
	}

	if err := w.Save(path, password, wallet.StandardCost); err != nil {
		log.Fatal(err)
	}

	fmt.Println(w.Address())
}
