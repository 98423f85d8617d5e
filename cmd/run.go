package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/viewgen"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create the yearly view and add it to the union view",
	Long: `Drop and recreate the yearly KVP view from the source view, then append it to
the configured union view if it is not already part of it.`,
	RunE: runJob,
}

func runJob(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd, !dryRun)
	if err != nil {
		return err
	}
	defer s.Close()

	if dryRun {
		return printPlan(s)
	}

	l, err := acquireRunLock(s)
	if err != nil {
		return err
	}
	defer l.Release()

	report, err := job.NewRunner(s.db, s.logger).Run(s.ctx, s.cfg.Job)
	recordReport(s, report)
	if report != nil && report.View != nil {
		fmt.Println(successStyle.Render(fmt.Sprintf("View %s created/refreshed successfully.", report.View.View)))
	}
	if err != nil {
		return err
	}

	if report.Union == nil {
		fmt.Println(dimStyle.Render("No union view configured; union step skipped."))
		return nil
	}
	printUnionResult(report.Union)
	return nil
}

func printPlan(s *session) error {
	ddl, err := viewgen.New(nil, s.logger).Render(job.ViewSpec(s.cfg.Job))
	if err != nil {
		return err
	}
	fmt.Print(ddl)

	if us, ok := job.UnionSpec(s.cfg.Job, s.cfg.Job.Year); ok {
		if err := us.Validate(); err != nil {
			return err
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("-- then: append %s.%s to %s.%s if present and not yet included",
			us.TargetSchema, us.YearlyView(), us.TargetSchema, us.UnionView)))
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the DDL instead of executing it")
	rootCmd.AddCommand(runCmd)
}
