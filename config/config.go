package config

import (
	"path/filepath"

	"github.com/cms-top/crabgen/crab"
	"github.com/cms-top/crabgen/logger"
)

// Config describes configuration for crabgen.
type Config struct {
	// ProductionTag is the version tag of the NanoAOD production, e.g. "v6p1".
	// It names the parameter-set files and the request names.
	ProductionTag string
	// RequestPrefix starts every request name.
	RequestPrefix string
	// InstallRoot is the root of the CMSSW source tree ($CMSSW_BASE/src).
	InstallRoot string
	// PSetDir is searched for parameter-set files, relative to InstallRoot
	// unless absolute.
	PSetDir string
	// User owns the output area on the storage site.
	User string
	// Eras lists the data-taking periods accepted by "--era".
	Eras []string
	// Submission is the template every generated descriptor starts from.
	Submission crab.Config
	// Template is a Go text/template rendering a descriptor. The built-in
	// template is used when empty.
	Template string
	DAS      DAS
	Ledger   Ledger
	Submit   Submit
	Metrics  Metrics
	Logger   logger.Config
}

// DAS describes how parent datasets are looked up.
type DAS struct {
	// Client is "http" to query the DAS web API or "command" to run
	// dasgoclient.
	Client string
	URL    string
	// Command runs dasgoclient when Client is "command".
	Command string
	// CertFile and KeyFile hold the grid certificate or proxy. KeyFile
	// defaults to CertFile.
	CertFile string
	KeyFile  string
	CAFile   string
	Timeout  Duration
	// MaxTries bounds the attempts of a single lookup.
	MaxTries int
	// RateLimit is the maximum number of requests per second. Zero disables
	// throttling.
	RateLimit float64
}

// Ledger describes the local record of generated requests.
type Ledger struct {
	// Path of the BoltDB file. The ledger is disabled when empty.
	Path string
}

// Submit describes the command submitting a generated descriptor.
type Submit struct {
	// Command is run with the descriptor path appended.
	Command string
}

// Metrics describes where run metrics are exported.
type Metrics struct {
	// TextfilePath receives the metrics in Prometheus text format at the end
	// of a run, e.g. for the node exporter textfile collector.
	TextfilePath string
}

// PSetRoot returns the directory searched for parameter-set files.
func (c Config) PSetRoot() string {
	if c.PSetDir == "" || filepath.IsAbs(c.PSetDir) {
		return c.PSetDir
	}
	return filepath.Join(c.InstallRoot, c.PSetDir)
}

// ValidEra reports whether "era" is one of the configured eras.
func (c Config) ValidEra(era string) bool {
	for _, e := range c.Eras {
		if e == era {
			return true
		}
	}
	return false
}
