// Command bundle-extract is a standalone harness for runtime/bundle: it
// plays the part of the "outer application host" that spec §1 scopes out
// of the library itself, so the extraction pipeline can be exercised
// end-to-end from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corehost/bundle-extract/internal/config"
	"github.com/corehost/bundle-extract/internal/logging"
	"github.com/corehost/bundle-extract/runtime/bundle"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "bundle-extract <bundle-path>",
		Short: "Extract a self-contained application bundle onto the local filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, args[0])
		},
	}

	if err := config.Register(v, cmd.Flags()); err != nil {
		panic(err)
	}

	return cmd
}

func run(v *viper.Viper, bundlePath string) error {
	logging.SetDebug(v.GetBool(config.KeyVerbose))

	if baseDir := v.GetString(config.KeyBaseDir); baseDir != "" {
		if err := os.Setenv("DOTNET_BUNDLE_EXTRACT_BASE_DIR", baseDir); err != nil {
			return err
		}
	}
	if v.GetBool(config.KeyMetrics) {
		bundle.EnableMetrics()
	}

	runner := bundle.NewRunner()
	status, ctx, err := runner.Extract(bundlePath, false)
	switch status {
	case bundle.StatusSuccess:
		fmt.Fprintln(os.Stdout, ctx.ExtractionPath)
		return nil
	case bundle.StatusAppHostExeNotBundle:
		fmt.Fprintln(os.Stderr, "not an application bundle")
		return err
	default:
		fmt.Fprintf(os.Stderr, "extraction failed (%s): %v\n", status, err)
		return err
	}
}
