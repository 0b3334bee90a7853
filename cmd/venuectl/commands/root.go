// Package commands holds the cobra commands of venuectl.
// Every command is a thin wrapper that parses flags into a feature command or query,
// runs it through the instrumented handler, and prints the result.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/venue-shards-go/internal/printer"
)

var versionInfo = "dev"

// globalFlags are shared by all subcommands.
type globalFlags struct {
	configPath string
	output     string
	strict     bool
	precheck   bool
}

// SetVersionInfo sets the version printed by --version.
func SetVersionInfo(version, commit string) {
	versionInfo = fmt.Sprintf("%s (commit: %s)", version, commit)
}

// Execute runs venuectl on the process arguments. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(out io.Writer, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "venuectl",
		Short: "venuectl - manage venues and bookings across database partitions",
		Long: `venuectl manages venues and their bookings. Venues are spread over several
PostgreSQL partitions by a hash of their name. Writes go to the owning partition,
searches and statistics ask every partition and merge the answers.`,
		Version:       versionInfo,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "venues.yaml", "path of the YAML config file (empty: environment only)")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", printer.FormatText, "output format: text or json")
	root.PersistentFlags().BoolVar(&flags.strict, "strict", false, "fail queries when any partition does not answer")
	root.PersistentFlags().BoolVar(&flags.precheck, "precheck", false, "ping partitions first and skip the ones that do not answer")

	root.AddCommand(
		newInitSchemaCommand(flags),
		newAddVenueCommand(flags),
		newImportVenuesCommand(flags),
		newUpdateVenueCommand(flags),
		newRemoveVenueCommand(flags),
		newBookCommand(flags),
		newBookingsCommand(flags),
		newSearchCommand(flags),
		newCitiesCommand(flags),
		newNamesCommand(flags),
		newStatsCommand(flags),
		newRouteCommand(flags),
		newHealthCommand(flags),
	)

	return root
}

// newPrinter builds the printer for the --output flag of cmd.
func newPrinter(cmd *cobra.Command, flags *globalFlags) (*printer.Printer, error) {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags.output)
}
