package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"campusbot/internal/chat"
	"campusbot/internal/model"
)

func newAskCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ask [query...]",
		Short: "Answer one message the way the widget would",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sess := chat.NewSession("cli", a.engine, a.cfg.Widget.Greeting)
			defer sess.Close()

			reply, ok, err := sess.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("empty message")
			}
			return printReply(cmd.OutOrStdout(), reply, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	return cmd
}

func printReply(w io.Writer, m model.Message, format string) error {
	if format == "json" {
		return writeJSON(w, m)
	}
	if m.Result == nil {
		_, err := fmt.Fprintln(w, m.Content)
		return err
	}
	fmt.Fprintf(w, "Found %d event(s):\n", m.Result.Count)
	for _, ev := range m.Result.Items {
		printEvent(w, ev)
	}
	return nil
}

func printEvent(w io.Writer, ev model.Event) {
	var meta []string
	for _, s := range []string{ev.Date, ev.Time, ev.Location, ev.Category} {
		if s != "" {
			meta = append(meta, s)
		}
	}
	fmt.Fprintf(w, "  - %s", ev.Title)
	if len(meta) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(meta, ", "))
	}
	if len(ev.Tags) > 0 {
		fmt.Fprintf(w, " #%s", strings.Join(ev.Tags, " #"))
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
