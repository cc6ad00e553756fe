package chatcmder

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const chatLongDesc string = `Open an interactive chat session against a running iclgen server.

Type what you want deployed; the assistant replies with an ICL YAML
configuration that you can refine with follow-up messages ("make it
4GB RAM instead"). Ctrl+C or Esc quits.

Examples:
  iclgen chat
  iclgen chat --server http://localhost:9090`

const chatShortDesc string = "Interactive terminal chat"

type chatCommander struct {
	serverURL string
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "iclgen server URL")

	return cmd
}

func (c *chatCommander) run() error {
	client := newAPIClient(c.serverURL)

	sessionID, err := client.createSession()
	if err != nil {
		return fmt.Errorf("could not start session: %w", err)
	}

	program := tea.NewProgram(initialModel(client, sessionID), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}

	return nil
}
