// cmd/licensectl/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/licensechain/internal/app"
	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/wallet"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	GitCommit = "unknown"

	// Global flags
	keystoreDir string
	account     string
	assumeYes   bool
	verbose     bool
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "licensectl",
	Short: "LicenseChain applicant and admin console",
	Long: `licensectl submits license applications and performs admin actions
against the LicenseChain contract, signing with a local keystore account.

Reads are public and need no account.`,
	Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&keystoreDir, "keystore", "", "keystore directory (default $KEYSTORE_DIR)")
	rootCmd.PersistentFlags().StringVarP(&account, "account", "a", "", "account address to sign with (default $WALLET_ACCOUNT)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to every confirmation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "licensectl %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", GitCommit)
	},
}

// console holds everything a command needs. The ledger is opened once per
// invocation.
type console struct {
	cfg      *config.Config
	logger   *logrus.Logger
	ledger   *app.LedgerHandle
	prompter *wallet.TerminalPrompter
	provider wallet.Provider

	identity     *services.IdentityService
	licenses     *services.LicenseService
	storage      *services.StorageService
	applications *services.ApplicationService
	admin        *services.AdminService
}

func openConsole(ctx context.Context) (*console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !verbose {
		cfg.Logging.Level = "warn"
	}
	logger := app.NewLogger(cfg.Logging, cfg.Environment)

	ledger, err := app.OpenLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if ledger.Simulated {
		logger.Warn("working against an in-process ledger; nothing written here outlives this command")
	}

	admins, err := services.NewAdminRegistry(cfg.Admin.Addresses, cfg.Admin.AddressesFile, logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	storage, err := services.NewStorageService(cfg, logger)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	dir := cfg.Blockchain.KeystoreDir
	if keystoreDir != "" {
		dir = keystoreDir
	}
	selected := cfg.Blockchain.Account
	if account != "" {
		selected = account
	}

	prompter := wallet.NewTerminalPrompter()
	prompter.AssumeYes = assumeYes

	identity := services.NewIdentityService(admins, logger)
	licenses := services.NewLicenseService(ledger.Ledger, cfg.Renewal.Window(), logger)
	admin := services.NewAdminService(identity, ledger.Ledger, licenses, logger)
	admin.SetNotifier(services.NewNotificationService(cfg, logger))

	return &console{
		cfg:          cfg,
		logger:       logger,
		ledger:       ledger,
		prompter:     prompter,
		provider:     wallet.NewKeystoreProvider(wallet.OpenKeystore(dir), selected, ledger.ChainID, prompter),
		identity:     identity,
		licenses:     licenses,
		storage:      storage,
		applications: services.NewApplicationService(identity, storage, ledger.Ledger, logger),
		admin:        admin,
	}, nil
}

func (c *console) Close() {
	c.ledger.Close()
}

// withConsole opens the console for the duration of run.
func withConsole(run func(ctx context.Context, c *console, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := openConsole(ctx)
		if err != nil {
			return err
		}
		defer c.Close()
		return run(ctx, c, cmd, args)
	}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
