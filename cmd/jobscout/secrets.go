package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobscout/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage credentials in the OS keychain",
	Long:  "Stores API keys and the ntfy topic in the OS keychain so they never have to live in the config file. Environment variables of the same name always win over keychain entries.",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a secret",
	Long:  "Reads the value from stdin and stores it under the given name, e.g. GEMINI_API_KEY, OPENAI_API_KEY or NTFY_TOPIC.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsSet,
}

var secretsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsRm,
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsSetCmd)
	secretsCmd.AddCommand(secretsRmCmd)
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	fmt.Fprintf(os.Stderr, "Value for %s: ", name)

	value, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintf(os.Stderr, "failed to read value: %v\n", err)
		os.Exit(1)
	}

	if err := secrets.Store(name, strings.TrimSpace(value)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store secret: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored %s in the keychain.\n", name)
	return nil
}

func runSecretsRm(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := secrets.Delete(name); err != nil {
		fmt.Fprintf(os.Stderr, "failed to remove secret: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %s from the keychain.\n", name)
	return nil
}
