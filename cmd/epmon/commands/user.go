package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/cli/output"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/cli/prompt"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/cli/timeutil"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

const minPasswordLength = 8

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage platform users",
	Long: `Manage platform user accounts directly against the database.

These commands operate on local accounts. Users from directory, LDAP, or
federation providers are created automatically on first login and only their
role and active flag can be managed here.`,
}

var userAddRole string

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a local user (prompts for password)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListOutput string

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	Args:    cobra.NoArgs,
	RunE:    runUserList,
}

var userPasswdCmd = &cobra.Command{
	Use:     "passwd <username>",
	Aliases: []string{"password"},
	Short:   "Change a local user's password",
	Args:    cobra.ExactArgs(1),
	RunE:    runUserPasswd,
}

var userRoleCmd = &cobra.Command{
	Use:   "role <username> <admin|operator|viewer>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserRole,
}

var userDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSetActive(false),
}

var userEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Re-enable a disabled user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSetActive(true),
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", string(models.RoleViewer), "Role for the new user (admin, operator, viewer)")
	userListCmd.Flags().StringVarP(&userListOutput, "output", "o", "table", "Output format (table, json, yaml)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userRoleCmd)
	userCmd.AddCommand(userDisableCmd)
	userCmd.AddCommand(userEnableCmd)
}

// openStore loads configuration and opens the platform store for a
// management command.
func openStore() (*store.GORMStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open platform store: %w", err)
	}
	return st, nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	role := models.UserRole(userAddRole)
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q (valid: admin, operator, viewer)", userAddRole)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", minPasswordLength)
	if err != nil {
		return err
	}

	hash, err := auth.NewHasher().Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		AuthProvider: "local",
		Role:         string(role),
		Active:       true,
		PasswordHash: hash,
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %q created with role %q\n", username, role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userListOutput)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	listing := output.NewListing("USERNAME", "PROVIDER", "ROLE", "ACTIVE", "LAST LOGIN")
	for _, u := range users {
		listing.Append(u.Username, u.AuthProvider, u.Role, fmt.Sprintf("%t", u.Active), timeutil.Display(u.LastLogin))
	}
	return listing.Render(os.Stdout, format)
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()

	user, err := st.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsLocal() {
		return fmt.Errorf("user %q authenticates via provider %q; passwords are managed there", username, user.AuthProvider)
	}

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", minPasswordLength)
	if err != nil {
		return err
	}

	hash, err := auth.NewHasher().Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := st.UpdatePassword(ctx, username, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("Password updated for user %q\n", username)
	return nil
}

func runUserRole(cmd *cobra.Command, args []string) error {
	username := args[0]
	role := models.UserRole(args[1])
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q (valid: admin, operator, viewer)", args[1])
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.UpdateUserRole(context.Background(), username, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	fmt.Printf("Role for user %q set to %q\n", username, role)
	return nil
}

func runUserSetActive(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		username := args[0]

		st, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if !active {
			ok, err := prompt.Confirm(fmt.Sprintf("Disable user %q", username), false)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := st.SetUserActive(context.Background(), username, active); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if active {
			fmt.Printf("User %q enabled\n", username)
		} else {
			fmt.Printf("User %q disabled\n", username)
		}
		return nil
	}
}
