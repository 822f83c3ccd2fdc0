package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/money"
)

func newAccountCmd() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	accountCmd.AddCommand(
		&cobra.Command{
			Use:   "add <type> [name]",
			Short: "Add an account with a zero balance",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := domain.ParseAccountType(args[0])
				if err != nil {
					return fmt.Errorf("%w (valid types: %v)", err, domain.AllTypes)
				}
				name := ""
				if len(args) == 2 {
					name = args[1]
				}

				_, l, err := openLedger()
				if err != nil {
					return err
				}
				acc, err := l.Add(cmd.Context(), t, name)
				if err != nil {
					return err
				}
				fmt.Printf("added %s %q (%s)\n", acc.Type, acc.Name, acc.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List accounts grouped by balance-sheet group",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				accounts, err := l.List(cmd.Context())
				if err != nil {
					return err
				}
				printAccounts(accounts)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				return l.Rename(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "set-balance <id> <amount>",
			Short: "Set an account's balance to an absolute value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := money.Parse(args[1])
				if err != nil {
					return err
				}
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				return l.SetBalance(cmd.Context(), args[0], value)
			},
		},
		&cobra.Command{
			Use:   "adjust <id> <delta>",
			Short: "Adjust an account's balance by a signed delta",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				delta, err := money.Parse(args[1])
				if err != nil {
					return err
				}
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				return l.Adjust(cmd.Context(), args[0], delta)
			},
		},
		&cobra.Command{
			Use:   "transfer <from-id> <to-id> <amount>",
			Short: "Move money between accounts, debt-aware",
			Long:  `Transfer moves a positive amount out of one account and into another. A debt account's stored balance moves the other way: paying a credit card from cash shrinks both sides.`,
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := money.Parse(args[2])
				if err != nil {
					return err
				}
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				return l.Transfer(cmd.Context(), args[0], args[1], amount)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an account (its history stays in the operation log)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				return l.Delete(cmd.Context(), args[0])
			},
		},
	)

	return accountCmd
}

func newTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show per-group totals, assets, debt, and net worth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, err := openLedger()
			if err != nil {
				return err
			}
			totals, err := l.Totals(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, g := range domain.Groups {
				fmt.Fprintf(w, "%s\t%s\n", g, totals.ByGroup[g])
			}
			fmt.Fprintf(w, "assets\t%s\n", totals.Assets)
			fmt.Fprintf(w, "debt\t%s\n", totals.Debt)
			fmt.Fprintf(w, "net\t%s\n", totals.Net)
			return w.Flush()
		},
	}
}

func printAccounts(accounts []domain.Account) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNAME\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Type, a.Name, a.Balance)
	}
	w.Flush()
}
