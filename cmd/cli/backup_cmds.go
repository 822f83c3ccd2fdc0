package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/backup"
)

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a backup document of the full ledger state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			codec := backup.NewCodec(store)
			doc, err := codec.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := backup.Encode(doc)
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				_, err = os.Stdout.Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(outPath, data, 0o600); err != nil {
				return err
			}
			fmt.Printf("exported %d keys to %s\n", len(doc.Items), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace local state with a backup document",
		Long:  `Import validates the document's schema tag, clears the ledger's current keys, and writes the document's keys in their place. Device-local sync settings survive the restore.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := backup.Decode(data)
			if err != nil {
				return err
			}

			if !yes {
				return fmt.Errorf("import replaces all local ledger data; re-run with --yes to confirm")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			report, err := backup.NewCodec(store).Restore(cmd.Context(), doc)
			if err != nil {
				return err
			}
			fmt.Printf("cleared %d, wrote %d, skipped %d keys\n", len(report.Cleared), len(report.Written), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm replacing local data")
	return cmd
}
