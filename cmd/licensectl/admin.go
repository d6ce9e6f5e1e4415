// cmd/licensectl/admin.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
)

var approveCmd = &cobra.Command{
	Use:   "approve <license-id>",
	Short: "Approve a pending license (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  withConsole(adminAction(models.AdminActionApprove)),
}

var rejectCmd = &cobra.Command{
	Use:   "reject <license-id>",
	Short: "Reject a pending license (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  withConsole(adminAction(models.AdminActionReject)),
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <license-id>",
	Short: "Revoke a license (admin, asks for confirmation)",
	Long: `Revoke a license. Revocation cannot be undone, so licensectl asks
before signing unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: withConsole(adminAction(models.AdminActionRevoke)),
}

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(revokeCmd)
}

func adminAction(action models.AdminAction) func(context.Context, *console, *cobra.Command, []string) error {
	return func(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
		id, err := parseLicenseID(args[0])
		if err != nil {
			return err
		}

		var confirm services.ConfirmFunc
		if action == models.AdminActionRevoke {
			confirm = func(id uint64) bool {
				return c.prompter.Confirm(fmt.Sprintf("Revoke license #%d? This cannot be undone.", id))
			}
		}

		result, err := c.admin.Act(ctx, c.provider, id, action, confirm)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "License #%d is now %s (tx %s)\n", result.LicenseID, result.Status, result.TxHash)
		if result.Licenses == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the listing could not be refreshed; run `licensectl list` to check.")
		}
		return nil
	}
}
