package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"engage/pkg/secrets"
	"engage/pkg/ui"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage webhook tokens",
	Long: `Manage the bearer tokens sent with remote exports.

Tokens are stored in the system keychain when available, otherwise in an
encrypted file in the engage config directory. ENGAGE_WEBHOOK_TOKEN and
ENGAGE_WEBHOOK_TOKEN_<NAME> are read as well.`,
}

var webhookEndpoint string

var webhookLoginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a webhook token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWebhookLogin,
}

var webhookLogoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored webhook token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWebhookLogout,
}

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored webhook tokens",
	Args:  cobra.NoArgs,
	RunE:  runWebhookList,
}

func init() {
	webhookLoginCmd.Flags().StringVar(&webhookEndpoint, "endpoint", "", "endpoint the token belongs to")
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookLoginCmd, webhookLogoutCmd, webhookListCmd)
}

func tokenName(args []string) string {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return secrets.DefaultName
}

func runWebhookLogin(cmd *cobra.Command, args []string) error {
	mgr, err := secrets.NewManager()
	if err != nil {
		return err
	}
	name := tokenName(args)

	fmt.Fprintf(cmd.OutOrStdout(), "Token for %q (input is hidden): ", name)
	value, err := readSecret(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	tok := &secrets.Token{Name: name, Endpoint: webhookEndpoint, Value: value}
	if err := mgr.Store(tok); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Stored token %q (%s)", name, secrets.Mask(value)))
	return nil
}

func runWebhookLogout(cmd *cobra.Command, args []string) error {
	mgr, err := secrets.NewManager()
	if err != nil {
		return err
	}
	name := tokenName(args)
	if err := mgr.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed token %q", name))
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	mgr, err := secrets.NewManager()
	if err != nil {
		return err
	}
	toks, err := mgr.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(toks) == 0 {
		fmt.Fprintln(out, "No webhook tokens stored.")
		return nil
	}
	for _, t := range toks {
		s := secrets.Sanitize(t)
		line := fmt.Sprintf("%-12s %s", s.Name, s.Value)
		if s.Endpoint != "" {
			line += "  " + ui.Dim(s.Endpoint)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// readSecret reads without echo from a terminal and falls back to a plain
// line read.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
