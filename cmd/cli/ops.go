package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/domain"
)

func newOpsCmd() *cobra.Command {
	opsCmd := &cobra.Command{
		Use:   "ops",
		Short: "Inspect and prune the operation log",
	}

	var accountID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List logged operations, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, err := openLedger()
			if err != nil {
				return err
			}

			var (
				ops []domain.Operation
			)
			if accountID != "" {
				ops, err = l.OperationsForAccount(cmd.Context(), accountID)
			} else {
				ops, err = l.Operations(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAT\tKIND\tDETAIL")
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.ID, op.At.Format("2006-01-02 15:04"), op.Kind, describeOp(op))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVar(&accountID, "account", "", "Only operations touching this account")

	var rollback bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a log entry, optionally rolling back its balance effect",
		Long:  `Delete removes an entry from the operation log. With --rollback the entry's recorded delta is subtracted from the affected balances, but only when no later absolute set-balance has overwritten the account; in that case the entry is deleted without touching the balance.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, err := openLedger()
			if err != nil {
				return err
			}
			outcomes, err := l.DeleteOperation(cmd.Context(), args[0], rollback)
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if o.Applied {
					fmt.Printf("rolled back %s\n", o.AccountID)
				} else {
					fmt.Printf("left %s untouched\n", o.AccountID)
				}
			}
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&rollback, "rollback", false, "Undo the entry's balance effect where safe")

	opsCmd.AddCommand(listCmd, deleteCmd)
	return opsCmd
}

func describeOp(op domain.Operation) string {
	switch op.Kind {
	case domain.OpRename:
		return fmt.Sprintf("%q -> %q", op.BeforeName, op.AfterName)
	case domain.OpSetBalance:
		return fmt.Sprintf("%s: %s -> %s", op.AccountID, op.Before, op.After)
	case domain.OpAdjust:
		return fmt.Sprintf("%s: %s (delta %s)", op.AccountID, op.After, op.Delta)
	case domain.OpTransfer:
		return fmt.Sprintf("%s -> %s: %s", op.FromID, op.ToID, op.Amount)
	default:
		return string(op.Kind)
	}
}
