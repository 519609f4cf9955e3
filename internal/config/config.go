// Package config binds the bundle-extract CLI's flags to environment
// variables via viper, the same cobra+viper pairing oasis-core uses for
// oasis-node's command surface.
package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys used both as viper config keys and, upper-cased behind the
// BUNDLE_EXTRACT_ prefix, as environment variable names. No key replacer
// is set, so a '-' in a key is kept as is (BUNDLE_EXTRACT_BASE-DIR).
const (
	KeyBaseDir = "base-dir"
	KeyVerbose = "verbose"
	KeyMetrics = "metrics"
)

// Register binds flags on fs into v, with env-variable fallbacks: unset
// flags fall back to BUNDLE_EXTRACT_<KEY> (base-dir unconditionally also
// honors DOTNET_BUNDLE_EXTRACT_BASE_DIR directly inside runtime/bundle
// itself, so leaving --base-dir unset here still does the right thing).
func Register(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyBaseDir, "", "override the extraction base directory (defaults to DOTNET_BUNDLE_EXTRACT_BASE_DIR or <temp>/.net)")
	fs.Bool(KeyVerbose, false, "enable debug-level trace output")
	fs.Bool(KeyMetrics, false, "register and expose extraction prometheus metrics")

	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	v.SetEnvPrefix("bundle_extract")
	v.AutomaticEnv()
	return nil
}
