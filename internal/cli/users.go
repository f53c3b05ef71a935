package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/faceofmind/admin-sync/internal/api"
	"github.com/faceofmind/admin-sync/internal/model"
)

// StatusUpdateFailedMessage is shown when the backend gives no usable reason.
const StatusUpdateFailedMessage = "Failed to update user status."

func newUsersCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and moderate user accounts",
	}
	cmd.AddCommand(newUsersListCommand(g), newUsersSetStatusCommand(g))
	return cmd
}

func newUsersListCommand(g *globals) *cobra.Command {
	var (
		filter model.UserFilter
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, err := model.ParseUserStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(); err != nil {
				return err
			}

			page, err := a.client.ListUsers(ctx, filter)
			if err != nil {
				a.printer.Error("%s", api.UserMessage(err, "Failed to load users."))
				a.logger.Debug("list users failed", "error", err)
				return errReported
			}
			return a.printer.Users(*page)
		},
	}

	f := cmd.Flags()
	f.IntVar(&filter.Page, "page", model.DefaultPage, "page number")
	f.IntVar(&filter.PageSize, "page-size", model.DefaultPageSize, "users per page")
	f.StringVarP(&filter.Query, "query", "q", "", "partial match on name or email")
	f.StringVar(&filter.Role, "role", "", "only users with this role")
	f.StringVar(&status, "status", "", "only users with this status")
	return cmd
}

func newUsersSetStatusCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <user-id> <status>",
		Short: "Change a user's account status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			status, err := model.ParseUserStatus(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(); err != nil {
				return err
			}

			resp, err := a.client.UpdateUserStatus(ctx, id, status)
			if err != nil {
				a.printer.Error("%s", api.UserMessage(err, StatusUpdateFailedMessage))
				a.logger.Debug("update status failed", "user_id", id, "error", err)
				return errReported
			}

			msg := resp.Message
			if msg == "" {
				msg = fmt.Sprintf("user %d is now %s", id, status)
			}
			a.printer.Success("%s", msg)
			return nil
		},
	}
}
