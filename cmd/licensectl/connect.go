// cmd/licensectl/connect.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Unlock the signing account and show whether it is an admin",
	Args:  cobra.NoArgs,
	RunE:  withConsole(runConnect),
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	session, err := c.identity.ResolveIdentity(ctx, c.provider)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), session)
	}

	role := "applicant"
	if session.IsAuthorized {
		role = "admin"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected as %s (%s)\n", session.ConnectedAddress, role)
	return nil
}
