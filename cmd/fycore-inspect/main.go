package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"fycore/config"
	"fycore/core/state"
	"fycore/native/vault"
	"fycore/observability/logging"
	"fycore/storage"
)

type vaultRow struct {
	Vault  string `json:"vault"`
	Owner  string `json:"owner"`
	Series string `json:"series"`
	Ilk    string `json:"ilk"`
	Ink    string `json:"ink"`
	Art    string `json:"art"`
}

type liquidationRow struct {
	Ilk       string `json:"ilk"`
	Owner     string `json:"owner"`
	StartedAt int64  `json:"startedAt"`
}

func main() {
	configPath := flag.String("config", "fycore.toml", "path to the node configuration file")
	showVaults := flag.Bool("vaults", true, "dump vault records")
	showLiquidations := flag.Bool("liquidations", true, "dump active liquidation records")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("fycore-inspect", cfg.Environment)

	db, err := storage.NewLevelDBReadOnly(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	manager := state.NewManager(db)

	out := json.NewEncoder(os.Stdout)
	if *showVaults {
		err = manager.EachVault(func(id vault.VaultID, v *vault.Vault, b *vault.Balances) error {
			return out.Encode(vaultRow{
				Vault:  id.String(),
				Owner:  v.Owner.Hex(),
				Series: v.Series.String(),
				Ilk:    v.Ilk.String(),
				Ink:    b.Ink.Dec(),
				Art:    b.Art.Dec(),
			})
		})
		if err != nil {
			logger.Error("dump vaults", "error", err)
			os.Exit(1)
		}
	}
	if *showLiquidations {
		err = manager.EachLiquidation(func(ilk vault.AssetID, owner [20]byte, startedAt int64) error {
			return out.Encode(liquidationRow{
				Ilk:       ilk.String(),
				Owner:     common.Address(owner).Hex(),
				StartedAt: startedAt,
			})
		})
		if err != nil {
			logger.Error("dump liquidations", "error", err)
			os.Exit(1)
		}
	}
}
