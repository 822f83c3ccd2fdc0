package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/kv"
	"github.com/iho/networth/internal/ledger"
)

var dataPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "networth",
		Short: "Personal balance-sheet ledger",
		Long:  `Track accounts across liquid, invest, fixed, receivable and debt groups, snapshot your net worth, and sync backups to WebDAV or the hosted backup server.`,
	}

	rootCmd.PersistentFlags().StringVar(&dataPath, "data", defaultDataPath(), "Path to the ledger data file")

	rootCmd.AddCommand(
		newAccountCmd(),
		newTotalsCmd(),
		newOpsCmd(),
		newSnapshotCmd(),
		newSettingsCmd(),
		newExportCmd(),
		newImportCmd(),
		newSyncCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "networth.json"
	}
	return filepath.Join(home, ".networth", "data.json")
}

// openStore opens the file-backed store, creating parent directories on
// first use.
func openStore() (*kv.File, error) {
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return kv.OpenFile(dataPath, kv.NewBus())
}

func openLedger() (*kv.File, *ledger.Ledger, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return store, ledger.New(store), nil
}
