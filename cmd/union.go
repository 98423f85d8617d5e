package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/union"
)

var unionYear int

var unionCmd = &cobra.Command{
	Use:   "union",
	Short: "Append a yearly view to the union view",
	Long: `Append {prefix}_{year}_vw to the configured union view. Nothing changes if the
yearly view or the union view is missing, or if the union already selects from it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()

		year := s.cfg.Job.Year
		if unionYear > 0 {
			year = unionYear
		}
		spec, ok := job.UnionSpec(s.cfg.Job, year)
		if !ok {
			return fmt.Errorf("job.union.view is not set")
		}

		l, err := acquireRunLock(s)
		if err != nil {
			return err
		}
		defer l.Release()

		res, err := union.New(s.logger).Append(s.ctx, s.db, spec)
		if err != nil {
			return err
		}
		recordRun(s, nil, nil, res)
		printUnionResult(res)
		return nil
	},
}

func init() {
	unionCmd.Flags().IntVar(&unionYear, "year", 0, "year to append (default: job.year)")
	rootCmd.AddCommand(unionCmd)
}
