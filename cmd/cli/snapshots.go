package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/money"
)

func newSnapshotCmd() *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record and inspect daily net-worth snapshots",
	}

	snapshotCmd.AddCommand(
		&cobra.Command{
			Use:   "take [date]",
			Short: "Record a snapshot for a date (default today), replacing any existing one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				date := ""
				if len(args) == 1 {
					date = args[0]
				}
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				snap, err := l.UpsertSnapshot(cmd.Context(), date)
				if err != nil {
					return err
				}
				assets := money.Sum(snap.Cash, snap.Invest, snap.Fixed, snap.Receivable)
				fmt.Printf("snapshot %s: assets %s, debt %s, net %s\n", snap.Date, assets, snap.Debt, snap.Net)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List snapshots by date",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				snaps, err := l.Snapshots(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tASSETS\tDEBT\tNET")
				for _, s := range snaps {
					assets := money.Sum(s.Cash, s.Invest, s.Fixed, s.Receivable)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Date, assets, s.Debt, s.Net)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "trend",
			Short: "Show one closing snapshot per month cycle",
			Long:  `Trend buckets snapshots into month cycles using the configured month start day and prints the latest snapshot of each cycle.`,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, l, err := openLedger()
				if err != nil {
					return err
				}
				series, err := l.MonthlySeries(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MONTH\tDATE\tNET")
				for _, b := range series {
					fmt.Fprintf(w, "%s\t%s\t%s\n", b.Month, b.Snapshot.Date, b.Snapshot.Net)
				}
				return w.Flush()
			},
		},
	)

	return snapshotCmd
}

func newSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Ledger settings",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "month-start [day]",
		Short: "Show or set the month cycle start day (1-28)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, err := openLedger()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Println(l.MonthStartDay(cmd.Context()))
				return nil
			}

			day, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid day %q", args[0])
			}
			return l.SetMonthStartDay(cmd.Context(), day)
		},
	})

	return settingsCmd
}
