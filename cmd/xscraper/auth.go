package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xscraper/pkg/auth"
	"xscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage x.com credentials",
	Long: `Manage x.com credentials stored in the system keychain.

Credentials are stored securely in your operating system's keychain
(macOS Keychain, Windows Credential Manager, or Linux Secret Service),
with an encrypted file fallback when no keychain is available.`,
}

// authLoginCmd stores credentials for an account
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials for an x.com account",
	Long: `Store credentials for an x.com account in the system keychain.

You will be prompted for the username and password. The password is
never echoed and never written to disk in plain text.`,
	Run: runAuthLogin,
}

// authLogoutCmd removes stored credentials
var authLogoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for an account.

Without a username, all stored credentials are removed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogout,
}

// authListCmd lists stored accounts
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	user, err := reader.ReadString('\n')
	if err != nil {
		ui.PrintError("Failed to read username", err.Error())
		os.Exit(1)
	}
	user = strings.TrimSpace(user)
	if user == "" {
		ui.PrintError("Username must not be empty", "")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	pass, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if pass == "" {
		ui.PrintError("Password must not be empty", "")
		os.Exit(1)
	}

	account := &auth.Account{Username: user, Password: pass}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials stored for %s", user))
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 1 {
		username := args[0]
		if err := manager.Delete(username); err != nil {
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess(fmt.Sprintf("Credentials removed for %s", username))
		return
	}

	if err := manager.DeleteAll(); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("All stored credentials removed")
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("Stored accounts", "none")
		fmt.Println("\nUse 'xscraper auth login' to store credentials.")
		return
	}

	ui.PrintHighlight("[STORED ACCOUNTS]")
	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("  %s  (updated %s)\n", ui.Cyan(sanitized.Username), sanitized.LastModified.Format("2006-01-02 15:04"))
	}
}

// readPassword reads a password without echoing it. When stdin is not a
// terminal it falls back to a plain line read.
func readPassword() (string, error) {
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
