// pkg/cli/cli.go
//
// Flag plumbing shared by all botstrap commands. Every flag is bound to a
// Viper instance with the BOTSTRAP_ environment prefix, so the same setting
// can arrive as a flag, an environment variable, or an interactive answer;
// flags win over environment, environment wins over defaults.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment namespace: --app-port becomes
// BOTSTRAP_APP_PORT.
const EnvPrefix = "BOTSTRAP"

// AddStringFlag adds a string flag and optionally marks it required.
func AddStringFlag(cmd *cobra.Command, name, shorthand, def, help string, required bool) {
	cmd.Flags().StringP(name, shorthand, def, help)
	if required {
		if err := cmd.MarkFlagRequired(name); err != nil {
			// Cobra still validates required flags at runtime.
			fmt.Fprintf(os.Stderr, "warning: failed to mark flag %s as required: %v\n", name, err)
		}
	}
}

// AddBoolFlag adds a boolean flag.
func AddBoolFlag(cmd *cobra.Command, name, shorthand string, def bool, help string) {
	cmd.Flags().BoolP(name, shorthand, def, help)
}

// AddIntFlag adds an int flag.
func AddIntFlag(cmd *cobra.Command, name, shorthand string, def int, help string) {
	cmd.Flags().IntP(name, shorthand, def, help)
}

// BindFlagsToViper binds all flags on a command to a Viper instance.
func BindFlagsToViper(cmd *cobra.Command, v *viper.Viper) error {
	var result error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}

// NewViper returns a Viper instance wired for botstrap's environment prefix
// with the command's flags bound.
func NewViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	SetViperEnvPrefix(v, EnvPrefix)
	if err := BindFlagsToViper(cmd, v); err != nil {
		return nil, err
	}
	return v, nil
}

// SetViperEnvPrefix lets Viper read environment variables with the prefix,
// mapping flag-style dashes to underscores.
func SetViperEnvPrefix(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// GetRequiredString returns the flag's value, erroring when unset or empty.
func GetRequiredString(cmd *cobra.Command, name string) (string, error) {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("flag error for --%s: %w", name, err)
	}
	if val == "" {
		return "", fmt.Errorf("required flag --%s is empty", name)
	}
	return val, nil
}
