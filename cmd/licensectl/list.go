// cmd/licensectl/list.go
package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
)

var (
	listMine    bool
	listStatus  string
	renewalsAll bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List licenses, newest first",
	Args:  cobra.NoArgs,
	RunE:  withConsole(runList),
}

var verifyCmd = &cobra.Command{
	Use:   "verify <license-id>",
	Short: "Check whether a license is currently valid",
	Args:  cobra.ExactArgs(1),
	RunE:  withConsole(runVerify),
}

var renewalsCmd = &cobra.Command{
	Use:   "renewals",
	Short: "List approved licenses inside the renewal window",
	Args:  cobra.NoArgs,
	RunE:  withConsole(runRenewals),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count licenses by status",
	Args:  cobra.NoArgs,
	RunE:  withConsole(runStats),
}

func init() {
	listCmd.Flags().BoolVar(&listMine, "mine", false, "only licenses applied for by the signing account")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (Pending, Approved, Rejected, Revoked, Active, Expired)")
	renewalsCmd.Flags().BoolVar(&renewalsAll, "all", false, "every applicant, not just the signing account")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(renewalsCmd)
	rootCmd.AddCommand(statsCmd)
}

// scope resolves the connected account when mine is set.
func (c *console) scope(ctx context.Context, mine bool) (models.LicenseScope, error) {
	if !mine {
		return models.AllLicenses(), nil
	}
	session, err := c.identity.ResolveIdentity(ctx, c.provider)
	if err != nil {
		return models.LicenseScope{}, err
	}
	return models.OwnedBy(session.ConnectedAddress), nil
}

func runList(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	scope, err := c.scope(ctx, listMine)
	if err != nil {
		return err
	}

	views, err := c.licenses.ListLicenses(ctx, scope)
	if err != nil {
		return err
	}
	views = services.FilterByStatus(views, listStatus)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), views)
	}
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No licenses found.")
		return nil
	}
	return writeLicenseTable(cmd.OutOrStdout(), views)
}

func runVerify(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	id, err := parseLicenseID(args[0])
	if err != nil {
		return err
	}

	result, err := c.licenses.VerifyLicense(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	writeVerification(cmd.OutOrStdout(), result)
	return nil
}

func writeVerification(out io.Writer, result *models.VerificationResult) {
	verdict := "NOT VALID"
	if result.IsValid {
		verdict = "VALID"
	}
	fmt.Fprintf(out, "License #%d: %s (%s)\n", result.LicenseID, verdict, result.DisplayStatus)
	fmt.Fprintf(out, "  Business: %s\n", result.BusinessName)
	fmt.Fprintf(out, "  Type:     %s / %s\n", result.LicenseType, result.Sector)
	if result.ExpiryDate != nil {
		fmt.Fprintf(out, "  Expires:  %s\n", result.ExpiryDate.Format(time.DateOnly))
	}
}

func runRenewals(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	scope, err := c.scope(ctx, !renewalsAll)
	if err != nil {
		return err
	}

	views, err := c.licenses.ExpiringLicenses(ctx, scope)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), views)
	}
	days := int(c.licenses.RenewalWindow().Hours() / 24)
	if len(views) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing expires within %d days.\n", days)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Licenses expiring within %d days:\n", days)
	return writeLicenseTable(cmd.OutOrStdout(), views)
}

func runStats(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	stats, err := c.licenses.Statistics(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), stats)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", stats.Total)
	fmt.Fprintf(w, "Pending\t%d\n", stats.Pending)
	fmt.Fprintf(w, "Approved\t%d\n", stats.Approved)
	fmt.Fprintf(w, "  Active\t%d\n", stats.Active)
	fmt.Fprintf(w, "  Expired\t%d\n", stats.Expired)
	fmt.Fprintf(w, "  Renewal due\t%d\n", stats.RenewalDue)
	fmt.Fprintf(w, "Rejected\t%d\n", stats.Rejected)
	fmt.Fprintf(w, "Revoked\t%d\n", stats.Revoked)
	return w.Flush()
}

func writeLicenseTable(out io.Writer, views []models.LicenseView) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBUSINESS\tTYPE\tAPPLICANT\tSTATUS\tEXPIRES")
	for _, v := range views {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.BusinessName, v.LicenseType, v.Applicant, v.Validity.DisplayStatus, expiryLabel(v))
	}
	return w.Flush()
}

func expiryLabel(v models.LicenseView) string {
	if v.ExpiryDate <= 0 {
		return "-"
	}
	label := time.Unix(v.ExpiryDate, 0).UTC().Format(time.DateOnly)
	if v.Validity.RenewalDue {
		label += fmt.Sprintf(" (%dd, renew)", v.Validity.ExpiresInDays)
	}
	return label
}

func parseLicenseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid license id %q", arg)
	}
	return id, nil
}
