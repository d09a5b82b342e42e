// Package cmd contains the wallet app commands.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	walletName string
	walletPath string
	password   string
	nodeURL    string
)

const keyExtension = ".json"

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "kennedy", "Name of the wallet.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with the wallets.")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "s", os.Getenv("WALLET_PASSWORD"), "Password of the wallet.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple ledger wallet",
}

// Execute runs the command named by the arguments.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getKeyPath() string {
	name := walletName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(walletPath, name)
}

func getWalletName() string {
	return strings.TrimSuffix(filepath.Base(walletName), keyExtension)
}
