package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"campusbot/internal/chat"
)

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant on stdin (empty line or /quit to exit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}

			sess := chat.NewSession(uuid.NewString(), a.engine, a.cfg.Widget.Greeting)
			defer sess.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n", a.cfg.Widget.Title, a.cfg.Widget.Greeting)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" || line == "/quit" {
					return nil
				}

				reply, ok, err := sess.Send(cmd.Context(), line)
				if errors.Is(err, chat.ErrSessionClosed) {
					return nil
				}
				if err != nil {
					return err
				}
				if ok {
					if err := printReply(out, reply, "text"); err != nil {
						return err
					}
				}
			}
		},
	}
}
