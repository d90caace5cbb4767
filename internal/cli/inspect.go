package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"casevue/internal/artifact"
	"casevue/internal/models"
	"casevue/internal/report"
)

func newCasesCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "List the manifest with artifact availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cat, err := e.loadCatalog()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCASE\tGROUP\tIMAGE\tMASK\tGRADCAM\tREPORT\tVIDEO")

			root := e.cfg.GetRoot()
			for _, c := range cat.Cases() {
				avail := artifact.Resolve(root, c).Availability()
				fmt.Fprintf(tw, "%d\t%s\t%s", c.Index, c.Key, c.GroupKey())
				for _, k := range models.ArtifactKinds {
					fmt.Fprintf(tw, "\t%s", mark(avail[k]))
				}
				fmt.Fprintln(tw)
			}

			return tw.Flush()
		},
	}
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}

func newResolveCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <case-key>",
		Short: "Print the artifact paths of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			set := artifact.Resolve(e.cfg.GetRoot(), models.Case{Key: args[0]})
			avail := set.Availability()

			out := cmd.OutOrStdout()
			for _, k := range models.ArtifactKinds {
				fmt.Fprintf(out, "%-8s %s", k, set.Path(k))
				if !avail[k] {
					fmt.Fprint(out, " (missing)")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newReportCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report <case-key>",
		Short: "Print the class probabilities of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			set := artifact.Resolve(e.cfg.GetRoot(), models.Case{Key: args[0]})
			r, err := report.Parse(set.Report)
			if errors.Is(err, report.ErrReportNotFound) {
				return fmt.Errorf("no report for case %s: %w", args[0], err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, entry := range r.Entries() {
				fmt.Fprintf(out, "%-12s %.2f\n", entry.Class, entry.Probability)
			}
			if best, ok := r.Best(); ok {
				fmt.Fprintf(out, "most likely: %s (%.2f)\n", best.Class, best.Probability)
			}
			return nil
		},
	}
}
