package cli

import (
	"errors"
	"fmt"
	"strings"

	"sgu-cli/internal/format"
	"sgu-cli/internal/model"
	"sgu-cli/internal/state"

	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List, show, create, update and delete users",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersShowCmd(app))
	cmd.AddCommand(newUsersCreateCmd(app))
	cmd.AddCommand(newUsersUpdateCmd(app))
	cmd.AddCommand(newUsersDeleteCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users in server order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			users, err := c.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data: users,
				Meta: map[string]any{"count": len(users), "baseURL": c.BaseURL()},
			})
		},
	}
}

func newUsersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Show a user",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showUser(app, cmd, args[0])
		},
	}
}

func showUser(app *App, cmd *cobra.Command, rawID string) error {
	id := model.ID(strings.TrimSpace(rawID))
	if id.IsZero() {
		return writeErr(cmd, errors.New("missing user id"))
	}
	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	u, err := c.Get(cmd.Context(), id)
	if err != nil {
		return writeErr(cmd, asNotFound(err, id.String()))
	}
	return writeOut(cmd, app, format.Envelope{Data: u})
}

func newUsersCreateCmd(app *App) *cobra.Command {
	var f model.Fields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Example: strings.TrimSpace(`
sgu users create --name "Ana Souza" --email ana@example.com --phone 555-0101
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session()
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := s.Submit(cmd.Context(), f)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, savedEnvelope(s, d))
		},
	}
	cmd.Flags().StringVar(&f.FullName, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&f.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&f.PhoneNumber, "phone", "", "Phone number (required)")
	return cmd
}

func newUsersUpdateCmd(app *App) *cobra.Command {
	var f model.Fields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user (fields not given keep their current value)",
		Example: strings.TrimSpace(`
sgu users update 7 --phone 555-0199
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ID(strings.TrimSpace(args[0]))
			if id.IsZero() {
				return writeErr(cmd, errors.New("missing user id"))
			}
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("email") && !flags.Changed("phone") {
				return writeErr(cmd, errors.New("nothing to update: pass --name, --email or --phone"))
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			current, err := c.Get(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, asNotFound(err, id.String()))
			}
			// The server may echo a different id form ("7" vs 7); the path id is canonical.
			current.ID = id

			next := current.Fields()
			if flags.Changed("name") {
				next.FullName = f.FullName
			}
			if flags.Changed("email") {
				next.Email = f.Email
			}
			if flags.Changed("phone") {
				next.PhoneNumber = f.PhoneNumber
			}

			s, err := app.session()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.SelectForEdit(current); err != nil {
				return writeErr(cmd, err)
			}
			d, err := s.Submit(cmd.Context(), next)
			if err != nil {
				return writeErr(cmd, asNotFound(err, id.String()))
			}
			return writeOut(cmd, app, savedEnvelope(s, d))
		},
	}
	cmd.Flags().StringVar(&f.FullName, "name", "", "New full name")
	cmd.Flags().StringVar(&f.Email, "email", "", "New email address")
	cmd.Flags().StringVar(&f.PhoneNumber, "phone", "", "New phone number")
	return cmd
}

// savedEnvelope reports the draft that was sent and the collection size after the
// follow-up refresh. A failed refresh is surfaced as a hint, not an error.
func savedEnvelope(s *state.Session, d model.Draft) format.Envelope {
	u := d.Values().Normalize().User("")
	if e, ok := d.(model.ExistingUser); ok {
		u.ID = e.ID
	}
	meta := map[string]any{"op": model.DraftKind(d), "count": s.List().Len()}
	if msg := s.List().LastError(); msg != "" {
		meta["_hint"] = "saved, but the list could not be refreshed: " + msg
	}
	return format.Envelope{Data: u, Meta: meta}
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a user (asks for confirmation unless --yes)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ID(strings.TrimSpace(args[0]))
			if id.IsZero() {
				return writeErr(cmd, errors.New("missing user id"))
			}
			if !yes && !app.isInteractive() {
				return writeErr(cmd, errConfirmationRequired)
			}

			s, err := app.session()
			if err != nil {
				return writeErr(cmd, err)
			}
			// Best effort: a loaded list lets the prompt name the user.
			_ = s.Refresh(cmd.Context())

			confirm := func(p state.PendingDelete) bool {
				if yes {
					return true
				}
				return app.confirm(cmd, fmt.Sprintf("Delete %s?", p.Label()))
			}
			attempted, err := s.DeleteWithConfirmation(cmd.Context(), id, confirm)
			if err != nil {
				return writeErr(cmd, asNotFound(err, id.String()))
			}
			return writeOut(cmd, app, format.Envelope{Data: map[string]any{
				"id":      id,
				"deleted": attempted,
			}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
