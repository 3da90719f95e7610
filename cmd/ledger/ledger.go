package ledger

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cms-top/crabgen/cmd/util"
	"github.com/cms-top/crabgen/config"
	"github.com/spf13/cobra"
)

// NewCommand returns the ledger command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	List func(conf config.Config, out io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		List: List,
	}

	var (
		configFile string
		conf       config.Config
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the record of generated requests.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			conf, err = util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			return nil
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.PersistentFlags().AddFlagSet(util.ConfigFlags(&flagConf, &configFile))

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List generated requests.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hooks.List(conf, cmd.OutOrStdout())
		},
	}
	cmd.AddCommand(list)

	return cmd, hooks
}

// List writes a table of the recorded requests to "out".
func List(conf config.Config, out io.Writer) error {
	if conf.Ledger.Path == "" {
		return fmt.Errorf("the ledger is disabled, set Ledger.Path")
	}
	l, err := util.OpenLedger(conf.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	recs, err := l.ListRequests()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUEST\tERA\tINPUT DATASET\tSITE\tCREATED\tTASK")
	for _, r := range recs {
		task := r.TaskName
		if !r.Submitted {
			task = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RequestName, r.Era, r.InputDataset, r.Site, r.CreatedAt.Format(time.RFC3339), task)
	}
	return w.Flush()
}
