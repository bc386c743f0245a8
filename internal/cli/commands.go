package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"attendancetracker/internal/attendance"
	"attendancetracker/internal/export"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Date string
	Name string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check-ins, newest first",
		Long: `List attendance check-ins, newest first.

Examples:
  attendancectl list
  attendancectl list --date 2024-05-01
  attendancectl list --date 2024-05-01 --name ali`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			records, err := opts.client().List(ctx, opts.Date, opts.Name)
			if err != nil {
				return err
			}
			return RenderRecords(cmd.OutOrStdout(), records, opts.location())
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "only this calendar day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "case-insensitive name search")

	return cmd
}

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Name          string
	Company       string
	Supervisor    string
	Signature     string
	SignatureFile string
	At            string
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a check-in",
		Long: `Record a check-in for one person.

The signature is either passed inline (usually a data URL) or read from an image file.

Examples:
  attendancectl submit --name "Ali" --company Ramo --supervisor Manoj --signature-file sig.png
  attendancectl submit --name "Ali" --company Ramo --supervisor Manoj --signature x --at 2024-05-01T08:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.input()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			rec, err := opts.client().Submit(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded check-in %d for %s at %s\n",
				rec.ID, rec.Name, rec.DateTime.In(opts.location()).Format(export.DateTimeLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "employee name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&opts.Supervisor, "supervisor", "", "supervisor (required)")
	_ = cmd.MarkFlagRequired("supervisor")
	cmd.Flags().StringVar(&opts.Signature, "signature", "", "signature data, usually a data URL")
	cmd.Flags().StringVar(&opts.SignatureFile, "signature-file", "", "PNG or JPEG image used as the signature")
	cmd.MarkFlagsOneRequired("signature", "signature-file")
	cmd.MarkFlagsMutuallyExclusive("signature", "signature-file")
	cmd.Flags().StringVar(&opts.At, "at", "", "check-in time (RFC 3339), defaults to now on the server")

	return cmd
}

func (o *SubmitOptions) input() (attendance.Input, error) {
	in := attendance.Input{
		Name:          o.Name,
		Company:       o.Company,
		Supervisor:    o.Supervisor,
		SignatureData: o.Signature,
	}
	if o.SignatureFile != "" {
		data, err := os.ReadFile(o.SignatureFile)
		if err != nil {
			return attendance.Input{}, fmt.Errorf("read signature: %w", err)
		}
		in.SignatureData = dataURL(data)
	}
	if o.At != "" {
		at, err := time.Parse(time.RFC3339, o.At)
		if err != nil {
			return attendance.Input{}, fmt.Errorf("invalid --at %q: %w", o.At, err)
		}
		in.DateTime = &at
	}
	return in, nil
}

func dataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format string
	Date   string
	Name   string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a spreadsheet or PDF report",
		Long: `Download an attendance report.

Without --output the file is written to the current directory under the name chosen by the server.

Examples:
  attendancectl export --format xlsx --date 2024-05-01
  attendancectl export --format pdf -o report.pdf`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if export.ContentType(opts.Format) == "" {
				return fmt.Errorf("invalid format %q: must be %s or %s", opts.Format, export.FormatXLSX, export.FormatPDF)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			rep, err := opts.client().Export(ctx, opts.Format, opts.Date, opts.Name)
			if err != nil {
				return err
			}
			path := opts.Output
			if path == "" {
				path = rep.Filename
			}
			if path == "" {
				label := opts.Date
				if label == "" {
					label = "all-records"
				}
				path = export.Filename(label, opts.Format)
			}
			if err := os.WriteFile(path, rep.Body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", filepath.Clean(path), len(rep.Body))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", export.FormatXLSX, "report format (xlsx|pdf)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "only this calendar day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "case-insensitive name search")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file")

	return cmd
}

// NewOptionsCommand creates the options command.
func NewOptionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Show the companies and supervisors offered by the form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			o, err := rootOpts.client().Options(ctx)
			if err != nil {
				return err
			}
			return RenderOptions(cmd.OutOrStdout(), o.Companies, o.Supervisors)
		},
	}
}
