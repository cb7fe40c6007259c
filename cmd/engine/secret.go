package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"jobportal-engine/internal/secrets"

	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage credentials kept in the OS keychain",
}

var setDBPasswordCmd = &cobra.Command{
	Use:   "set-db-password",
	Short: "Store the Postgres password for database.keyring_account",
	Long: `Reads the password from stdin and stores it in the OS keychain under
the account named by database.keyring_account. The engine uses it instead of
any password in database.url.`,
	RunE: runSetDBPassword,
}

var deleteDBPasswordCmd = &cobra.Command{
	Use:   "delete-db-password",
	Short: "Remove the stored Postgres password",
	RunE:  runDeleteDBPassword,
}

func init() {
	secretCmd.AddCommand(setDBPasswordCmd, deleteDBPasswordCmd)
	rootCmd.AddCommand(secretCmd)
}

func keyringAccount() (string, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return "", err
	}
	lc, err := loadConfig(dataDir)
	if err != nil {
		return "", err
	}
	cfg := lc.Effective
	if cfg.Database.KeyringAccount == "" {
		return "", errors.New("database.keyring_account is not set in the config")
	}
	return cfg.Database.KeyringAccount, nil
}

func runSetDBPassword(cmd *cobra.Command, _ []string) error {
	account, err := keyringAccount()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	if err := secrets.SetDatabasePassword(account, strings.TrimRight(line, "\r\n")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored password for %q\n", account)
	return nil
}

func runDeleteDBPassword(cmd *cobra.Command, _ []string) error {
	account, err := keyringAccount()
	if err != nil {
		return err
	}
	if err := secrets.DeleteDatabasePassword(account); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted password for %q\n", account)
	return nil
}
