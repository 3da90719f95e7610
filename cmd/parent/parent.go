package parent

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/cms-top/crabgen/cmd/util"
	"github.com/cms-top/crabgen/config"
	"github.com/cms-top/crabgen/logger"
	rootutil "github.com/cms-top/crabgen/util"
	"github.com/spf13/cobra"
)

// NewCommand returns the parent command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, out io.Writer, datasets []string) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "parent <dataset>...",
		Short: "Print the parent of each dataset.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx, cancel := rootutil.SignalContext(context.Background(), nil, os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return hooks.Run(ctx, conf, cmd.OutOrStdout(), args)
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.Flags().AddFlagSet(util.ConfigFlags(&flagConf, &configFile))

	return cmd, hooks
}

// Run resolves the parent of every dataset and writes one
// "<dataset> <parent>" line per dataset to "out".
func Run(ctx context.Context, conf config.Config, out io.Writer, datasets []string) error {
	log := logger.NewLogger("parent", conf.Logger)

	l, err := util.OpenLedger(conf.Ledger)
	if err != nil {
		return err
	}
	if l != nil {
		defer l.Close()
	}

	r, err := util.NewResolver(conf.DAS, l, log)
	if err != nil {
		return err
	}

	for _, ds := range datasets {
		p, err := r.Parent(ctx, ds)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ds, p)
	}
	return nil
}
