package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var privateURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node",
	Run:   statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&privateURL, "private-url", "r", "http://localhost:9080", "Url of the node private api.")
}

func statusRun(cmd *cobra.Command, args []string) {
	var status peer.Status
	if err := send(http.MethodGet, fmt.Sprintf("%s/v1/node/status", privateURL), nil, &status); err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		log.Fatal(err)
	}
}
