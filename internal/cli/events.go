package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campusbot/internal/config"
	"campusbot/internal/query"
)

func newEventsCmd(opts *options) *cobra.Command {
	var (
		q      string
		format string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the loaded events, optionally filtered by a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}

			events := a.catalog.Events()
			if q != "" {
				intent := a.engine.Interpreter().Interpret(q)
				if intent.IsEventSearch() {
					events = query.FilterEvents(events, intent.Predicates)
				}
			}
			events = query.SortByDate(events, a.loc)

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, events)
			}
			fmt.Fprintf(out, "%d event(s)\n", len(events))
			for _, ev := range events {
				printEvent(out, ev)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q, "query", "q", "", "Filter with a chat query, e.g. \"technical events this week\"")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	return cmd
}

func loadLocation(opts *options) (*time.Location, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg.Location()
}
