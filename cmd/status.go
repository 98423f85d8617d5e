package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/catalog"
	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/union"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the yearly view and union view membership",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		defer printHistory(s)

		vs := job.ViewSpec(s.cfg.Job)
		if err := vs.Validate(); err != nil {
			return err
		}
		exists, err := catalog.ViewExists(s.ctx, s.db, vs.TargetSchema, vs.TargetView)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render("Yearly view"))
		fmt.Printf("  %s exists: %s\n\n", vs.Target(), strconv.FormatBool(exists))

		us, ok := job.UnionSpec(s.cfg.Job, s.cfg.Job.Year)
		if !ok {
			fmt.Println(dimStyle.Render("No union view configured."))
			return nil
		}
		if err := us.Validate(); err != nil {
			return err
		}

		view, err := catalog.GetView(s.ctx, s.db, us.TargetSchema, us.UnionView)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render("Union view"))
		if view == nil {
			fmt.Println(skipStyle.Render(fmt.Sprintf("  %s.%s not found.", us.TargetSchema, us.UnionView)))
			return nil
		}

		members := union.ReferencedViews(view.Definition)
		table := newTable(os.Stdout, "#", "Member", "Job year")
		for i, m := range members {
			mark := ""
			if union.Includes(m, us.YearlyView()) {
				mark = "yes"
			}
			table.Append([]string{strconv.Itoa(i + 1), m, mark})
		}
		table.Render()

		if union.Includes(view.Definition, us.YearlyView()) {
			fmt.Println(successStyle.Render(fmt.Sprintf("%s is included in %s.", us.YearlyView(), view.QualifiedName())))
		} else {
			fmt.Println(skipStyle.Render(fmt.Sprintf("%s is not yet included in %s.", us.YearlyView(), view.QualifiedName())))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
