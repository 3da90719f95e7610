package cmd

import (
	"fmt"

	"github.com/cms-top/crabgen/cmd/util"
	"github.com/cms-top/crabgen/config"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	var (
		configFile string
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			b, err := config.ToYaml(conf)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.Flags().AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
	return cmd
}
