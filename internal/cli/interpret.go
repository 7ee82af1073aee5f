package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"campusbot/internal/query"
)

func newInterpretCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interpret [query...]",
		Short: "Print how a query is classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the timezone is needed; skip loading the catalog.
			loc, err := loadLocation(opts)
			if err != nil {
				return err
			}
			in := query.NewInterpreter(query.WithLocation(loc))
			return writeJSON(cmd.OutOrStdout(), in.Interpret(strings.Join(args, " ")))
		},
	}
}
