package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// commandFlags maps config keys to the dashed flags of each subcommand.
// Subcommands may share a key, so only the command being executed binds.
var commandFlags = map[*cobra.Command]map[string]string{}

// bindFlag maps a dashed CLI flag onto its config key. Only flags the user
// sets override the config file.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// bindCommandFlags records the bindings applied when cmd runs.
func bindCommandFlags(cmd *cobra.Command, keys map[string]string) {
	commandFlags[cmd] = keys
}

func applyCommandFlags(cmd *cobra.Command) error {
	for key, name := range commandFlags[cmd] {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("%s: no flag --%s for %s", cmd.Name(), name, key)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
