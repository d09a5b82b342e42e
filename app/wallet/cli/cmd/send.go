package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount string
)

type sendTx struct {
	From     string          `json:"from"`
	Password string          `json:"password"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
}

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send coins to an address or wallet name",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address or wallet name of the recipient.")
	sendCmd.Flags().StringVarP(&amount, "amount", "v", "", "Amount to send.")
}

func sendRun(cmd *cobra.Command, args []string) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		log.Fatalf("invalid amount %q: %s", amount, err)
	}

	tx := sendTx{
		From:     getWalletName(),
		Password: password,
		To:       to,
		Amount:   value,
	}

	var resp struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}
	if err := send(http.MethodPost, fmt.Sprintf("%s/v1/tx/send", nodeURL), tx, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Println(resp.Status, resp.ID)
}
