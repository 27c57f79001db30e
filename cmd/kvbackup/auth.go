package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kvbackup/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Cloudflare credentials",
	Long: `Manage stored Cloudflare API credentials.

Tokens are stored using, in order of preference:
  - the system keychain (when available)
  - an encrypted file (AES-GCM, PBKDF2 key derivation)
  - environment variables (read-only)

Create a token with "Workers KV Storage: Read" permission in the
Cloudflare dashboard (My Profile > API Tokens).`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store a Cloudflare API token securely",
	Example: `  # Interactive login under the default profile
  kvbackup auth login

  # Store a named profile
  kvbackup auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked tokens",
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	name := "default"
	if len(args) == 1 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("API token (input hidden): ")
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("API token cannot be empty")
	}

	fmt.Print("Account ID: ")
	account, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read account ID: %w", err)
	}
	account = strings.TrimSpace(account)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := manager.Store(&auth.Account{
		Name:      name,
		APIToken:  token,
		AccountID: account,
	}); err != nil {
		return err
	}

	fmt.Printf("Stored credentials for profile %q\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	name := "default"
	if len(args) == 1 {
		name = strings.TrimSpace(args[0])
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := manager.Delete(name); err != nil {
		return err
	}

	fmt.Printf("Removed profile %q\n", name)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Println("No stored profiles. Run 'kvbackup auth login' to add one.")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("%-16s token=%s account=%s modified=%s\n",
			masked.Name, masked.APIToken, masked.AccountID,
			masked.LastModified.Format("2006-01-02 15:04"))
	}

	return nil
}
