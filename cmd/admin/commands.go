package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/expense-backend/internal/dto"
)

func newRootCmd(factory appFactory) *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "expense-admin",
		Short:         "Maintenance tasks for the expense tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = factory(cmd.Context())
			return err
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a != nil && a.close != nil {
				a.close()
			}
		},
	}

	current := func() *app { return a }
	root.AddCommand(seedCmd(current))
	root.AddCommand(categoriesCmd(current))
	root.AddCommand(reportCmd(current))
	root.AddCommand(alertsCmd(current))
	root.AddCommand(exportCmd(current))
	return root
}

func seedCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a().categories.SeedDefaults(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d categories\n", res.Added)
			return nil
		},
	}
}

func categoriesCmd(a func() *app) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a().categories.ListCategories(cmd.Context(), typ)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, c := range cats {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.CategoryID, c.Name, c.Type)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "income or expense")
	return cmd
}

func reportCmd(a func() *app) *cobra.Command {
	var (
		uid         string
		year, month int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's monthly report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var y, m *int
			if cmd.Flags().Changed("year") {
				y = &year
			}
			if cmd.Flags().Changed("month") {
				m = &month
			}
			rep, err := a().reports.MonthlyReport(cmd.Context(), uid, y, m)
			if err != nil {
				return err
			}
			return writeJSON(cmd, rep)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "user id")
	cmd.Flags().IntVar(&year, "year", 0, "report year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "report month 1-12 (default current)")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func alertsCmd(a func() *app) *cobra.Command {
	var uid string
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Print a user's budget alerts for the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			alerts, err := a().budgets.Alerts(cmd.Context(), uid)
			if err != nil {
				return err
			}
			return writeJSON(cmd, alerts)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "user id")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func exportCmd(a func() *app) *cobra.Command {
	var (
		uid    string
		filter dto.TransactionFilter
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's transactions as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a().transactions.ExportCSV(cmd.Context(), uid, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "user id")
	cmd.Flags().StringVar(&filter.StartDate, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.EndDate, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.Type, "type", "", "income or expense")
	cmd.Flags().StringVar(&filter.CategoryID, "category", "", "category id")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
