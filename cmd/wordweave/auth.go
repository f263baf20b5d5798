package main

import (
	"fmt"

	"github.com/LJTian/WordWeave/internal/auth"
	"github.com/spf13/cobra"
)

type authOptions struct {
	service string
}

func newAuthCmd() *cobra.Command {
	opts := &authOptions{}
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage translator API keys in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.service, "service", "gemini", "Service to manage (google or gemini)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Save an API key (prompted, not echoed)",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runAuthSet(cmd, opts) },
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the saved API key",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runAuthDelete(cmd, opts) },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the API key comes from",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return runAuthStatus(cmd, opts) },
		},
	)
	return cmd
}

func runAuthSet(cmd *cobra.Command, opts *authOptions) error {
	svc, err := auth.Normalize(opts.service)
	if err != nil {
		return err
	}
	key, err := auth.PromptForAPIKey(fmt.Sprintf("%s API Key: ", svc))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if err := auth.SaveKey(svc, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain.\n", svc)
	return nil
}

func runAuthDelete(cmd *cobra.Command, opts *authOptions) error {
	svc, err := auth.Normalize(opts.service)
	if err != nil {
		return err
	}
	if err := auth.DeleteKey(svc); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", svc)
	return nil
}

func runAuthStatus(cmd *cobra.Command, opts *authOptions) error {
	svc, err := auth.Normalize(opts.service)
	if err != nil {
		return err
	}
	if _, src := auth.GetKey(svc, true); src != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found (source=%s)\n", svc, src)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Not Found\n", svc)
	return nil
}
