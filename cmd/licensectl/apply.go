// cmd/licensectl/apply.go
package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
)

var draft models.ApplicationDraft
var documentPath string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit a license application",
	Long: `Upload the identity document, then record the application on the
ledger from the signing account. The ledger assigns the license id.`,
	Args: cobra.NoArgs,
	RunE: withConsole(runApply),
}

func init() {
	applyCmd.Flags().StringVar(&draft.BusinessName, "business-name", "", "registered business name")
	applyCmd.Flags().StringVar(&draft.RegNumber, "reg-number", "", "business registration number")
	applyCmd.Flags().StringVar(&draft.Email, "email", "", "contact email")
	applyCmd.Flags().StringVar(&draft.PhysicalAddress, "address", "", "physical address")
	applyCmd.Flags().StringVar(&draft.Description, "description", "", "business description")
	applyCmd.Flags().StringVar(&draft.LicenseType, "type", "", "license type")
	applyCmd.Flags().StringVar(&draft.Sector, "sector", "", "business sector")
	applyCmd.Flags().StringVarP(&documentPath, "document", "d", "", "identity document to attach")

	rootCmd.AddCommand(applyCmd)
}

func runApply(ctx context.Context, c *console, cmd *cobra.Command, args []string) error {
	if documentPath != "" {
		file, closeFile, err := openDocument(documentPath)
		if err != nil {
			return err
		}
		defer closeFile()
		draft.Document = file
	}

	id, err := c.applications.Submit(ctx, c.provider, &draft, func(stage services.SubmissionStage) {
		fmt.Fprintln(cmd.ErrOrStderr(), stageMessage(stage))
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]uint64{"license_id": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Application submitted as license #%d\n", id)
	return nil
}

func openDocument(path string) (*models.DocumentFile, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat document: %w", err)
	}

	return &models.DocumentFile{
		Name:        filepath.Base(path),
		ContentType: detectContentType(f, path),
		Size:        info.Size(),
		Reader:      f,
	}, func() { f.Close() }, nil
}

// detectContentType prefers the extension and falls back to sniffing. The
// file is rewound afterwards.
func detectContentType(f *os.File, path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	head := make([]byte, 512)
	n, _ := f.Read(head)
	_, _ = f.Seek(0, io.SeekStart)
	return http.DetectContentType(head[:n])
}

func stageMessage(stage services.SubmissionStage) string {
	switch stage {
	case services.StageConnecting:
		return "Connecting wallet..."
	case services.StageUploading:
		return "Uploading document..."
	case services.StageSubmitting:
		return "Waiting for signature..."
	case services.StageConfirming:
		return "Waiting for confirmation..."
	case services.StageSubmitted:
		return "Confirmed."
	}
	return string(stage)
}
