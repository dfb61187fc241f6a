package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider API credentials",
	Long: `Manage the API credentials used by the pipeline stages.

Credentials are resolved in order from:
  - Environment variables (including a local .env file)
  - System keychain

"auth set" stores into the system keychain; environment variables always
take precedence so existing .env workflows keep working.

Known credential names:
  flickr_api_key, flickr_api_secret, google_api_key,
  google_search_engine_id, gemini_api_key`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a credential in the system keychain",
	Example: `  twdataset auth set flickr_api_key
  twdataset auth set gemini_api_key`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which credentials are configured",
	Long:  `Show which credentials resolve to a value, without printing the secrets.`,
	RunE:  runAuthShow,
}

func init() {
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(strings.TrimSpace(args[0]))
	if !knownCredential(name) {
		return fmt.Errorf("unknown credential %q", name)
	}

	fmt.Printf("Value for %s: ", name)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read value: %w", err)
	}
	if len(value) == 0 {
		return fmt.Errorf("empty value")
	}

	store, err := auth.NewKeyringStore()
	if err != nil {
		return fmt.Errorf("system keychain unavailable: %w", err)
	}
	if err := store.Set(name, string(value)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	fmt.Printf("stored %s in the system keychain\n", name)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()

	names := []string{
		auth.KeyFlickrAPIKey,
		auth.KeyFlickrAPISecret,
		auth.KeyGoogleAPIKey,
		auth.KeyGoogleSearchEngineID,
		auth.KeyGeminiAPIKey,
	}

	w := cmd.OutOrStdout()
	for _, name := range names {
		value, err := manager.Get(name)
		status := "not set"
		if err == nil && value != "" {
			status = fmt.Sprintf("set (%s)", maskSecret(value))
		}
		fmt.Fprintf(w, "%-26s %s\n", name, status)
	}
	return nil
}

func knownCredential(name string) bool {
	switch name {
	case auth.KeyFlickrAPIKey, auth.KeyFlickrAPISecret, auth.KeyGoogleAPIKey,
		auth.KeyGoogleSearchEngineID, auth.KeyGeminiAPIKey:
		return true
	}
	return false
}

// maskSecret keeps just enough of the value to recognize it
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", 4)
}
