package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/kvp"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the built-in field catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := kvp.Default()

		table := newTable(os.Stdout, "#", "Field", "Expression", "Type")
		for i, f := range cat.Fields() {
			table.Append([]string{strconv.Itoa(i + 1), f.Name(), f.Expr, string(f.Type)})
		}
		table.Render()

		fmt.Println(dimStyle.Render(fmt.Sprintf("%d fields; each source row yields %d view rows.", cat.Len(), cat.Len())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
