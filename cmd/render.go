package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/job"
	"github.com/reloquent/kvpview/internal/viewgen"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the yearly view DDL without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()

		ddl, err := viewgen.New(nil, s.logger).Render(job.ViewSpec(s.cfg.Job))
		if err != nil {
			return err
		}

		if renderOutput == "" {
			fmt.Print(ddl)
			return nil
		}
		if err := os.WriteFile(renderOutput, []byte(ddl), 0o644); err != nil {
			return fmt.Errorf("writing DDL: %w", err)
		}
		fmt.Printf("DDL written to %s\n", renderOutput)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write the DDL to this file instead of stdout")
	rootCmd.AddCommand(renderCmd)
}
