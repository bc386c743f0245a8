// Package cli implements attendancectl, a command line client for the attendance API.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"attendancetracker/internal/client"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	APIURL   string
	Timezone string
	Timeout  time.Duration
}

// NewRootCommand creates the root command. apiURL is the default for --api-url.
func NewRootCommand(apiURL string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "attendancectl",
		Short: "Inspect and submit attendance check-ins",
		Long:  "Command line client for the attendance check-in API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.APIURL == "" {
				return fmt.Errorf("--api-url must not be empty")
			}
			if _, err := time.LoadLocation(opts.Timezone); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", opts.Timezone, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", apiURL, "base URL of the attendance API")
	cmd.PersistentFlags().StringVar(&opts.Timezone, "tz", "Local", "timezone used to print check-in times")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Second, "request timeout")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewOptionsCommand(opts))

	return cmd
}

func (o *RootOptions) client() *client.Client {
	return client.New(o.APIURL)
}

func (o *RootOptions) location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
