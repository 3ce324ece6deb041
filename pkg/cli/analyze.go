package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/services"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var allergens []string

	cmd := &cobra.Command{
		Use:   "analyze <barcode>",
		Short: "Analyze one barcode and print the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.analysis.Analyze(cmd.Context(), args[0], services.Caller{Allergens: cleanList(allergens)})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringSliceVar(&allergens, "allergens", nil, "allergen categories to check, e.g. dairy,nuts")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		userID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.analysis.ListRecent(cmd.Context(), limit, userID)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum rows (default from config)")
	cmd.Flags().StringVar(&userID, "user", "", "list this user's scans (required when history.scope is user)")
	return cmd
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHistory(w io.Writer, rows []models.AnalysisSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tBARCODE\tNAME\tBRAND\tGRADE\tFOOD TYPE\tID")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Barcode, r.ProductName, r.Brand, r.NutriScore, r.FoodType, r.ID)
	}
	return tw.Flush()
}
