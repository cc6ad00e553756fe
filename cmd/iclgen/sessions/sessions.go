package sessionscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spheronhq/iclgen/cmd/iclgen/dbpath"
	"github.com/spheronhq/iclgen/pkg/storage/sqlite"
)

const sessionsLongDesc string = `List recorded conversation sessions from the local turn log.

With a session id, prints that session's full turn history and the
latest validated document.

Examples:
  iclgen sessions
  iclgen sessions 4f7c2d8e-1b7a-4a46-9a0e-5d7c1f2e3a4b
  iclgen sessions --db /tmp/iclgen.db`

const sessionsShortDesc string = "Inspect recorded sessions"

type sessionsCommander struct {
	dbPath string
}

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return cmder.show(cmd.Context(), cmd, args[0])
			}
			return cmder.list(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.dbPath, "db", "d", "", "Path to SQLite turn log")

	return cmd
}

func (c *sessionsCommander) open(ctx context.Context) (*sqlite.Driver, error) {
	path, err := dbpath.ResolveDBPath(c.dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve turn log: %w", err)
	}

	driver, err := sqlite.NewDriver(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("could not open turn log %s: %w", path, err)
	}
	return driver, nil
}

func (c *sessionsCommander) list(ctx context.Context, cmd *cobra.Command) error {
	driver, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	sessions, err := driver.Sessions(ctx)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded sessions.")
		return nil
	}

	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %3d turns  last active %s\n",
			s.ID, s.TurnCount, s.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	return nil
}

func (c *sessionsCommander) show(ctx context.Context, cmd *cobra.Command, sessionID string) error {
	driver, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	turns, err := driver.Turns(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no recorded turns for session %s", sessionID)
	}

	for _, t := range turns {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s:\n%s\n\n",
			t.CreatedAt.Local().Format("15:04:05"), t.Role, t.Text)
	}

	doc, err := driver.Document(ctx, sessionID)
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Current document:\n%s\n", doc)
	}

	return nil
}
