package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine its mempool into a block",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := send(http.MethodGet, fmt.Sprintf("%s/v1/mining/signal", nodeURL), nil, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Println(resp.Status)
}
