package main

import (
	"fmt"
	"time"

	"github.com/Estebaan93/RunnConnectAPI/api"
	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

var (
	tokenRole string
	tokenTTL  time.Duration
)

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(registration.ROLE_PARTICIPANT), "participant or organizer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("user id must be a UUID: %w", err)
	}
	role := registration.Role(tokenRole)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	if err := resolveSecrets(cmd.Context()); err != nil {
		return err
	}

	token, err := api.IssueToken(cfg.JWTSecret, registration.Actor{ID: id, Role: role}, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
