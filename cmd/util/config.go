package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cms-top/crabgen/config"
	"github.com/imdario/mergo"
	"github.com/spf13/pflag"
)

func normalize(name string) string {
	from := []string{"-", "_"}
	to := "."
	for _, sep := range from {
		name = strings.Replace(name, sep, to, -1)
	}
	return strings.ToLower(name)
}

// NormalizeFlags allows for flags to be case and separator insensitive.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	lookup := map[string]string{"help": "help", normalize(name): name}

	f.VisitAll(func(f *pflag.Flag) {
		lookup[normalize(f.Name)] = f.Name
	})

	return pflag.NormalizedName(lookup[normalize(name)])
}

// MergeConfigFileWithFlags loads the defaults, then the config file (if any),
// then the values set by flags in "flagConf". Zero values in "flagConf" do
// not override.
func MergeConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	conf := config.DefaultConfig()
	if err := config.ParseFile(file, &conf); err != nil {
		return conf, err
	}

	// file vals <- cli val
	if err := mergo.MergeWithOverwrite(&conf, flagConf); err != nil {
		return conf, err
	}
	return conf, nil
}

// TempConfigFile writes the configuration to a file in a new temporary
// directory. "cleanup" removes the directory.
func TempConfigFile(c config.Config, name string) (path string, cleanup func(), err error) {
	tmpdir, err := os.MkdirTemp("", "crabgen")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() {
		os.RemoveAll(tmpdir)
	}

	p := filepath.Join(tmpdir, name)
	if err := config.ToYamlFile(c, p); err != nil {
		cleanup()
		return "", nil, err
	}
	return p, cleanup, nil
}
