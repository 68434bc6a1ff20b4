package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"logbook/internal/config"
	"logbook/internal/core"
	"logbook/internal/records"
	"logbook/internal/services"
	"logbook/internal/storage"
	"logbook/internal/views"
)

type openFunc func() (*services.RecordService, *config.Config, error)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeCounts(w io.Writer, header string, counts []core.KeyCount) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "%s\tCOUNT\n", strings.ToUpper(header))
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Key, c.Count)
	}
	return tw.Flush()
}

// loadKind opens the service and loads the table named by the first arg.
func loadKind(open openFunc, cmd *cobra.Command, arg string) (core.Table, *services.RecordService, error) {
	kind, err := records.ParseKind(arg)
	if err != nil {
		return core.Table{}, nil, err
	}
	rs, _, err := open()
	if err != nil {
		return core.Table{}, nil, err
	}
	t, err := rs.Load(cmd.Context(), kind)
	return t, rs, err
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List record kinds and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KIND\tFILE\tCOLUMNS")
			for _, k := range records.Kinds() {
				schema := records.MustSchema(k)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k, records.DefaultFiles[k], strings.Join(schema.Columns, ", "))
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(open openFunc) *cobra.Command {
	var (
		status string
		column string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "show <kind>",
		Short: "Print the rows of a record table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadKind(open, cmd, args[0])
			if err != nil {
				return err
			}
			if status != "" {
				if t, err = views.FilterStatus(t, column, status); err != nil {
					return err
				}
			}

			cols := t.Columns()
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintf(tw, "#\t%s\n", strings.Join(cols, "\t"))
			for i := 0; i < t.Len(); i++ {
				if limit > 0 && i >= limit {
					break
				}
				cells := make([]string, len(cols))
				for j, c := range cols {
					cells[j] = t.Value(i, c)
				}
				fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(cells, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n", t.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "keep rows whose status matches, case-insensitively")
	cmd.Flags().StringVar(&column, "status-column", records.ColStatus, "column the status filter reads")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many rows")
	return cmd
}

func newCountCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count <kind> <column>",
		Short: "Count rows per value of a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadKind(open, cmd, args[0])
			if err != nil {
				return err
			}
			counts, err := views.CountBy(t, args[1])
			if err != nil {
				return err
			}
			return writeCounts(cmd.OutOrStdout(), args[1], counts)
		},
	}
}

func newDueCmd(open openFunc) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "due <kind> <date-column>",
		Short: "Count rows per due window (Urgent, Incoming, Expired)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, rs, err := loadKind(open, cmd, args[0])
			if err != nil {
				return err
			}
			ref := rs.Today()
			if asOf != "" {
				if ref, err = core.ParseDate(asOf); err != nil {
					return err
				}
			}
			series, err := views.DueSeries(t, args[1], ref)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "as of %s\n", ref)
			return writeCounts(cmd.OutOrStdout(), "window", series)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference day (default today)")
	return cmd
}

func newMonthlyCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "monthly <kind> <date-column>",
		Short: "Count rows per calendar month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadKind(open, cmd, args[0])
			if err != nil {
				return err
			}
			counts, err := views.CountByMonth(t, args[1])
			if err != nil {
				return err
			}
			return writeCounts(cmd.OutOrStdout(), "month", counts)
		},
	}
}

func newFYCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "fy <kind> <date-column>",
		Short: "List the financial years present, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := loadKind(open, cmd, args[0])
			if err != nil {
				return err
			}
			years, err := views.FinancialYears(t, args[1])
			if err != nil {
				return err
			}
			for _, fy := range years {
				fmt.Fprintln(cmd.OutOrStdout(), fy)
			}
			return nil
		},
	}
}

func newLedgerCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Show which table revisions the mirror worker has pushed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := open()
			if err != nil {
				return err
			}
			ledger, err := storage.OpenLedger(cfg.LedgerDBPath)
			if err != nil {
				return err
			}
			defer ledger.Close()

			states, err := ledger.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KIND\tROWS\tREVISION\tMIRRORED AT")
			for _, st := range states {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", st.Kind, st.Rows, shortRev(st.Revision), st.MirroredAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
