// Package cli is the terminal front end over the client packages:
// directoryctl drives the session store and directory controller against a
// running directory server.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/user-directory/internal/client/api"
	"github.com/spec-kit/user-directory/internal/client/directory"
	"github.com/spec-kit/user-directory/internal/client/session"
	"github.com/spec-kit/user-directory/internal/config"
)

type app struct {
	client     *api.Client
	session    *session.Store
	controller *directory.Controller
}

func newApp(serverURL, token string) *app {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}
	if serverURL == "" {
		serverURL = cfg.Client.BaseURL
	}
	if token == "" {
		token = cfg.Client.Token
	}

	client := api.New(serverURL, token, api.WithTimeout(cfg.Client.RequestTimeout()))
	sess := session.NewStore()
	sess.OnNotice(printNotice)
	client.OnUnauthenticated(sess.HandleAuthFailure)

	controller := directory.NewController(client, sess, printNotice, func() {
		fmt.Println("Signed out; returning to start.")
	})

	return &app{client: client, session: sess, controller: controller}
}

func printNotice(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// ExecuteContext runs the directoryctl command tree.
func ExecuteContext(ctx context.Context) error {
	var (
		serverURL string
		token     string
		a         *app
	)

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Manage the user directory from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a = newApp(serverURL, token)
		},
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "", "directory server base URL (default from CLIENT_BASE_URL)")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token (default from CLIENT_TOKEN)")

	root.AddCommand(
		whoamiCmd(&a),
		listCmd(&a),
		renameCmd(&a),
		deleteCmd(&a),
		logoutCmd(&a),
	)

	return root.ExecuteContext(ctx)
}

func whoamiCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			(*a).session.Bootstrap(cmd.Context(), (*a).client)
			identity := (*a).session.Identity()
			if identity == nil {
				return errors.New("not authenticated")
			}
			fmt.Printf("%s (%s) verified=%t\n", identity.UserName, identity.ID, identity.IsVerified)
			return nil
		},
	}
}

func listCmd(a **app) *cobra.Command {
	var (
		search   string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := (*a).controller
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}
			if err := ctrl.SetPageSize(pageSize); err != nil {
				return err
			}
			ctrl.SetSearch(search)
			for p := 1; p < page; p++ {
				ctrl.NextPage()
			}

			for _, row := range ctrl.Visible() {
				verified := ""
				if row.IsVerified {
					verified = " [verified]"
				}
				fmt.Printf("%-36s  %-20s  %s%s\n", row.ID, row.UserName, row.Email, verified)
			}
			fmt.Printf("page %d of %d\n", ctrl.Page(), ctrl.TotalPages())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by username substring")
	cmd.Flags().IntVar(&page, "page", 1, "page to display")
	cmd.Flags().IntVar(&pageSize, "page-size", directory.DefaultPageSize, "rows per page (5, 10, 20 or 50)")
	return cmd
}

func renameCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-username>",
		Short: "Change a user's username",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := (*a).controller
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}
			if err := ctrl.BeginEdit(args[0]); err != nil {
				return err
			}
			if err := ctrl.SetDraft(args[0], args[1]); err != nil {
				return err
			}
			return ctrl.SubmitEdit(cmd.Context(), args[0])
		},
	}
}

func deleteCmd(a **app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			(*a).session.Bootstrap(cmd.Context(), (*a).client)
			ctrl := (*a).controller
			if err := ctrl.Load(cmd.Context()); err != nil {
				return err
			}

			ctrl.RequestDelete(args[0])
			if !yes && !confirm(cmd, args[0]) {
				ctrl.CancelDelete()
				fmt.Println("Aborted.")
				return nil
			}
			return ctrl.ConfirmDelete(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func logoutCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			(*a).session.Logout(cmd.Context(), (*a).client)
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func confirm(cmd *cobra.Command, id string) bool {
	fmt.Printf("This will permanently delete user %s. This action cannot be undone. Continue? [y/N] ", id)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
