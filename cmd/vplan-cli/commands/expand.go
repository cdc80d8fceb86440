package commands

import (
	"fmt"
	"strings"

	"vplan-backend/lib/topics"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var expandNamespace *string

func init() {
	expandNamespace = expandCmd.Flags().String("namespace", "", "Prefix every topic with this namespace.")
	rootCmd.AddCommand(expandCmd)
}

var expandCmd = &cobra.Command{
	Use:   "expand <label>...",
	Short: "Shows the class topics a class label expands to.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expander := topics.Expander{Namespace: *expandNamespace}

		t := newTable()
		t.AppendHeader(table.Row{"Label", "Topics"})
		malformed := 0
		for _, label := range args {
			result, err := expander.Expand(label)
			if err != nil {
				malformed++
				t.AppendRow(table.Row{label, err.Error()})
				continue
			}
			t.AppendRow(table.Row{label, strings.Join(result, ", ")})
		}
		t.Render()

		if malformed > 0 {
			return fmt.Errorf("%d of %d labels are malformed", malformed, len(args))
		}
		return nil
	},
}
