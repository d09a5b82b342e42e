// This program performs administrative tasks against the block storage of
// a stopped node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args conf.Args
		DB   struct {
			Backend string `conf:"default:disk"`
			Path    string `conf:"default:zblock/blocks/"`
		}
		Genesis struct {
			File string `conf:"default:zblock/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "UTXO ledger admin",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	strg, err := storage.Open(cfg.DB.Backend, cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer strg.Close()

	log.Infow("startup", "backend", cfg.DB.Backend, "path", cfg.DB.Path, "command", cfg.Args.Num(0))

	return processCommands(cfg.Args, strg, cfg.Genesis.File)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, strg commands.Storage, genesisFile string) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, strg, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(os.Stdout, strg); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "genesis":
		if err := commands.Genesis(os.Stdout, strg, genesisFile); err != nil {
			return fmt.Errorf("writing genesis: %w", err)
		}

	default:
		fmt.Println("bals [address]: print the balances held in the chain")
		fmt.Println("blocks:         print the blocks from the head of the chain")
		fmt.Println("genesis:        write the genesis block to an empty storage")
		return commands.ErrHelp
	}

	return nil
}
