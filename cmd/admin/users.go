package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finanzas/internal/models"
	"finanzas/internal/pagination"
	"finanzas/internal/services"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user roster",
	}

	cmd.AddCommand(listUsersCmd())
	cmd.AddCommand(userStatsCmd())
	cmd.AddCommand(createUserCmd())
	cmd.AddCommand(setRoleCmd())
	cmd.AddCommand(setActiveCmd("activate", true))
	cmd.AddCommand(setActiveCmd("deactivate", false))
	cmd.AddCommand(deleteUserCmd())

	return cmd
}

func listUsersCmd() *cobra.Command {
	var (
		search string
		page   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.admin.ListUsers(cmd.Context(), pagination.PageRequest{Page: page}, search)
			if err != nil {
				return err
			}

			if len(result.Data) == 0 {
				fmt.Println(mutedStyle.Render("No users found."))
				return nil
			}

			printUsers(result.Data)
			fmt.Println(mutedStyle.Render(fmt.Sprintf("page %d of %d (%d users)", result.Page, result.TotalPages, result.TotalItems)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by first name, last name or email")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func printUsers(users []models.UserWithProfile) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Email"),
		headerStyle.Render("Name"),
		headerStyle.Render("Role"),
		headerStyle.Render("Active"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 24),
		strings.Repeat("-", 24),
		strings.Repeat("-", 5),
		strings.Repeat("-", 6))

	for _, u := range users {
		role := string(u.Role)
		if u.IsAdmin() {
			role = adminStyle.Render(role)
		}
		active := successStyle.Render("yes")
		if !u.Active {
			active = mutedStyle.Render("no")
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n", u.ID, u.Email, u.FirstName, u.LastName, role, active)
	}
}

func userStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show roster totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := app.admin.GetUserStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s %d\n", headerStyle.Render("Total:"), stats.Total)
			fmt.Printf("%s %d\n", headerStyle.Render("Inactive:"), stats.Inactive)
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var in services.AdminUserInput
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with an active profile",
		Example: `  finanzas-admin users create --email ops@example.com --password s3cret! \
    --first-name Ana --last-name Ruiz --phone 3001234567 --role admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = models.Role(role)
			in.Active = true
			user, err := app.admin.CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("Created %s (%s) with role %s", user.Email, user.ID, user.Role)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password (min 6 characters)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "user or admin")
	for _, name := range []string{"email", "password", "first-name", "last-name", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <user|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.Role(args[1])
			user, err := app.admin.UpdateUser(cmd.Context(), args[0], services.AdminUserUpdate{Role: &role})
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("%s is now %s", user.Email, user.Role)))
			return nil
		},
	}
}

func setActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a user's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.admin.UpdateUser(cmd.Context(), args[0], services.AdminUserUpdate{Active: &active})
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("%s active=%t", user.Email, user.Active)))
			return nil
		},
	}
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user with their categories and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.admin.DeleteUser(cmd.Context(), "", args[0]); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Deleted " + args[0]))
			if !app.sharedCache {
				fmt.Println(mutedStyle.Render("REDIS_ADDR not set: the API may serve this user's cached dashboard until STATS_CACHE_TTL expires."))
			}
			return nil
		},
	}
}
