package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/restkit/spec2client/internal/export"
	"github.com/spf13/cobra"
)

// ExportConfig captures the options for the export command.
type ExportConfig struct {
	Input   string
	Out     string
	Branch  string
	Force   bool
	Verbose bool
}

var exportRunner = runExport

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the parsed API surface as an OpenAPI 3 document",
		Long: "Export the parsed API surface as an OpenAPI 3 document: one operation per " +
			"endpoint, method, and path variant, with parts as path parameters and params as query parameters.",
		Example: "  spec2client export --input ./rest-api-spec --out openapi.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &ExportConfig{}
			var err error
			if cfg.Input, err = cmd.Flags().GetString("input"); err != nil {
				return err
			}
			if cfg.Out, err = cmd.Flags().GetString("out"); err != nil {
				return err
			}
			if cfg.Branch, err = cmd.Flags().GetString("branch"); err != nil {
				return err
			}
			if cfg.Force, err = cmd.Flags().GetBool("force"); err != nil {
				return err
			}
			if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
				return err
			}
			return exportRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Directory containing the REST API spec files")
	flags.String("out", "openapi.json", "Where to write the OpenAPI document")
	flags.String("branch", "main", "Branch or commit tag the specs were taken from")
	flags.Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runExport(ctx context.Context, cfg *ExportConfig) error {
	input := strings.TrimSpace(cfg.Input)
	if input == "" {
		return newUsageError("export: --input is required")
	}
	out := strings.TrimSpace(cfg.Out)
	if out == "" {
		out = "openapi.json"
	}

	api, err := loadApi(ctx, input, strings.TrimSpace(cfg.Branch))
	if err != nil {
		return err
	}

	doc := export.Document(api)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal document: %w", err)
	}
	data = append(data, '\n')

	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("export: resolve output path: %w", err)
	}
	if st, err := os.Stat(absPath); err == nil && st.Mode().IsRegular() && !cfg.Force {
		return newUsageError(fmt.Sprintf("export: %q already exists (use --force to overwrite)", absPath))
	}

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("export: cannot write temp file: %v", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("export: cannot place file at %s: %v", absPath, err))
	}
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "exported OpenAPI document to %s\n", absPath)
	}
	return nil
}
