package main

import (
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/registration"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <event-id>",
	Short: "Compare stored slot counters with the registrations behind them",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	eventID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("event id must be a UUID: %w", err)
	}

	db, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	service := registration.NewService(db, db, db, registration.WithLogger(newLogger()))
	drifts, err := service.AuditCounters(cmd.Context(), eventID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(drifts) == 0 {
		fmt.Fprintln(out, "All counters match")
		return nil
	}
	for _, d := range drifts {
		scope := "event"
		if d.CategoryID != nil {
			scope = "category " + d.CategoryID.String()
		}
		fmt.Fprintf(out, "%s: stored %d, actual %d\n", scope, d.Stored, d.Actual)
	}
	return fmt.Errorf("%d counters drifted", len(drifts))
}
