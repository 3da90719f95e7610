package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cms-top/crabgen/crab"
	"github.com/cms-top/crabgen/logger"
)

// DefaultConfig returns configuration with simple defaults. The install root
// and user come from the CMSSW environment.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()

	installRoot := filepath.Join(cwd, "src")
	if base := os.Getenv("CMSSW_BASE"); base != "" {
		installRoot = filepath.Join(base, "src")
	}

	home, _ := os.UserHomeDir()
	ledgerPath := ""
	if home != "" {
		ledgerPath = filepath.Join(home, ".crabgen", "ledger.db")
	}

	return Config{
		ProductionTag: "v6p1",
		RequestPrefix: "TopNanoAOD",
		InstallRoot:   installRoot,
		PSetDir:       "PhysicsTools/NanoAOD",
		User:          os.Getenv("USER"),
		Eras:          []string{"2016", "2017", "2018"},
		Submission:    crab.DefaultConfig(),
		DAS: DAS{
			Client:   "http",
			URL:      "https://cmsweb.cern.ch",
			Command:  "dasgoclient",
			CertFile: os.Getenv("X509_USER_PROXY"),
			Timeout:  Duration(time.Minute),
			MaxTries: 5,
		},
		Ledger: Ledger{
			Path: ledgerPath,
		},
		Submit: Submit{
			Command: "crab submit --config",
		},
		Logger: logger.DefaultConfig(),
	}
}
