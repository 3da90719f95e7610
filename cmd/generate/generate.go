package generate

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/cms-top/crabgen/cmd/util"
	"github.com/cms-top/crabgen/config"
	"github.com/cms-top/crabgen/crab"
	"github.com/cms-top/crabgen/datasets"
	"github.com/cms-top/crabgen/generator"
	"github.com/cms-top/crabgen/ledger"
	"github.com/cms-top/crabgen/logger"
	"github.com/cms-top/crabgen/metrics"
	"github.com/cms-top/crabgen/submit"
	rootutil "github.com/cms-top/crabgen/util"
	"github.com/cms-top/crabgen/util/fsutil"
	"github.com/cms-top/crabgen/version"
	"github.com/spf13/cobra"
)

// Options holds the values of the generate command line.
type Options struct {
	Era      string
	Datasets []string
	Site     string
	Output   string
	DryRun   bool
	Submit   bool
	// Out receives rendered descriptors in dry-run mode.
	Out io.Writer
}

// NewCommand returns the generate command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, opts Options) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		flagConf   config.Config
		opts       Options
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a CRAB config for every dataset of the given lists.",
		Example: `  crabgen generate --era 2018 --datasets mc2018.json --site T2_DE_DESY --output crab_configs
  crabgen generate -e 2017 -d mc.json -d data.json -s T2_CH_CERN --submit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			if len(opts.Datasets) == 0 {
				return fmt.Errorf("at least one dataset list is required, use --datasets")
			}
			opts.Out = cmd.OutOrStdout()

			ctx, cancel := rootutil.SignalContext(context.Background(), nil, os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return hooks.Run(ctx, conf, opts)
		},
	}

	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	f := cmd.Flags()
	f.AddFlagSet(util.ConfigFlags(&flagConf, &configFile))
	f.StringVarP(&opts.Era, "era", "e", "", "Era to process, all eras of the lists when empty")
	f.StringSliceVarP(&opts.Datasets, "datasets", "d", nil, "JSON dataset list. This flag can be used multiple times")
	f.StringVarP(&opts.Site, "site", "s", "", "Storage site of the output, e.g. T2_DE_DESY")
	f.StringVarP(&opts.Output, "output", "o", ".", "Directory receiving the CRAB configs")
	f.StringVar(&flagConf.ProductionTag, "tag", flagConf.ProductionTag, "Production tag, e.g. v6p1")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Print the configs instead of writing them")
	f.BoolVar(&opts.Submit, "submit", false, "Submit every written config with the CRAB client")
	cmd.MarkFlagRequired("site")

	return cmd, hooks
}

// Run generates the CRAB configs described by "opts".
func Run(ctx context.Context, conf config.Config, opts Options) error {
	log := logger.NewLogger("generate", conf.Logger)
	log.Debug("Version", version.LogFields()...)

	if opts.Era != "" && !conf.ValidEra(opts.Era) {
		return fmt.Errorf("unknown era %q, expected one of %v", opts.Era, conf.Eras)
	}
	if opts.DryRun && opts.Submit {
		return fmt.Errorf("--dry-run and --submit cannot be used together")
	}

	list, err := datasets.LoadFiles(opts.Datasets...)
	if err != nil {
		return err
	}

	tpl, err := crab.ParseTemplate(conf.Template)
	if err != nil {
		return err
	}

	if !opts.DryRun {
		if err := fsutil.EnsureDir(opts.Output); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	gen := &generator.Generator{
		Writer: &crab.Writer{
			RequestPrefix: conf.RequestPrefix,
			ProductionTag: conf.ProductionTag,
			User:          conf.User,
			StorageSite:   opts.Site,
			OutputDir:     opts.Output,
			Template:      tpl,
		},
		Template:      &conf.Submission,
		PSetRoot:      conf.PSetRoot(),
		ProductionTag: conf.ProductionTag,
		DryRun:        opts.DryRun,
		Out:           opts.Out,
		RunID:         rootutil.GenRunID(),
		Log:           log,
	}

	var l *ledger.Ledger
	if !opts.DryRun {
		l, err = util.OpenLedger(conf.Ledger)
		if err != nil {
			return err
		}
		if l != nil {
			defer l.Close()
			gen.Recorder = l
		}
	}
	gen.Resolver, err = util.NewResolver(conf.DAS, l, log)
	if err != nil {
		return err
	}

	if opts.Submit {
		runner, err := submit.NewRunner(conf.Submit.Command)
		if err != nil {
			return err
		}
		gen.Submitter = runner
	}

	log.Info("Generating CRAB configs", "run", gen.RunID, "era", opts.Era, "output", opts.Output)
	results, err := gen.Run(ctx, list, opts.Era)

	if conf.Metrics.TextfilePath != "" {
		if merr := metrics.WriteTextfile(conf.Metrics.TextfilePath); merr != nil {
			log.Error("Writing metrics", merr)
		}
	}
	if err != nil {
		return err
	}

	log.Info("Done", "written", len(results))
	return nil
}
