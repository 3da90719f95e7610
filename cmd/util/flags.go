package util

import (
	"github.com/cms-top/crabgen/config"
	"github.com/spf13/pflag"
)

// ConfigFlags returns the flags shared by commands reading a crabgen config.
func ConfigFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(dasFlags(flagConf))
	f.AddFlagSet(ledgerFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

func dasFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.DAS.Client, "DAS.Client", flagConf.DAS.Client, "DAS client to use. One of ['http', 'command']")
	f.StringVar(&flagConf.DAS.URL, "DAS.URL", flagConf.DAS.URL, "DAS server URL")
	f.StringVar(&flagConf.DAS.Command, "DAS.Command", flagConf.DAS.Command, "dasgoclient command line")
	f.StringVar(&flagConf.DAS.CertFile, "DAS.CertFile", flagConf.DAS.CertFile, "Grid certificate or proxy file")
	f.StringVar(&flagConf.DAS.KeyFile, "DAS.KeyFile", flagConf.DAS.KeyFile, "Grid certificate key file")
	f.StringVar(&flagConf.DAS.CAFile, "DAS.CAFile", flagConf.DAS.CAFile, "CA bundle verifying the DAS server")
	f.Var(&flagConf.DAS.Timeout, "DAS.Timeout", "Timeout of a DAS request")
	f.IntVar(&flagConf.DAS.MaxTries, "DAS.MaxTries", flagConf.DAS.MaxTries, "Attempts per parent lookup")
	f.Float64Var(&flagConf.DAS.RateLimit, "DAS.RateLimit", flagConf.DAS.RateLimit, "Maximum DAS requests per second")

	return f
}

func ledgerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Ledger.Path, "Ledger.Path", flagConf.Ledger.Path, "Path to the ledger database")

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "log-level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "log-path", flagConf.Logger.OutputFile, "File path to write logs to")
	f.StringVar(&flagConf.Logger.Formatter, "log-format", flagConf.Logger.Formatter, "Logs formatter. One of ['text', 'json']")

	return f
}
