package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/viewgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create or replace the yearly KVP view only",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()

		l, err := acquireRunLock(s)
		if err != nil {
			return err
		}
		defer l.Release()

		spec := job.ViewSpec(s.cfg.Job)
		res, err := viewgen.New(nil, s.logger).CreateOrReplace(s.ctx, s.db, spec)
		if err != nil {
			return err
		}
		recordRun(s, &spec, res, nil)
		fmt.Println(successStyle.Render(fmt.Sprintf("View %s created/refreshed successfully (%d fields per row).", res.View, res.Fields)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
