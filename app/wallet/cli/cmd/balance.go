package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type balance struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type balances struct {
	LatestHash  string    `json:"latest_hash"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the wallet",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {

	// The address is part of the key document, no password is needed.
	ns, err := nameservice.New(walletPath)
	if err != nil {
		log.Fatal(err)
	}

	address, err := ns.Address(getWalletName())
	if err != nil {
		log.Fatal(err)
	}

	var bals balances
	if err := send(http.MethodGet, fmt.Sprintf("%s/v1/balances/list/%s", nodeURL, address), nil, &bals); err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Address:", address)
	if len(bals.Balances) > 0 {
		fmt.Println(bals.Balances[0].Balance)
	}
}
