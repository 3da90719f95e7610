// Package crab builds CRAB submission descriptors and writes them as
// configuration files readable by the CRAB client.
package crab

import (
	"fmt"

	"github.com/getlantern/deepcopy"
)

// Config is a CRAB submission descriptor. Field names follow the attribute
// names of the CRAB configuration sections.
type Config struct {
	General General `json:"General"`
	JobType JobType `json:"JobType"`
	Data    Data    `json:"Data"`
	Site    Site    `json:"Site"`
}

// General describes the "General" section.
type General struct {
	RequestName     string `json:"requestName"`
	WorkArea        string `json:"workArea"`
	TransferOutputs bool   `json:"transferOutputs"`
	TransferLogs    bool   `json:"transferLogs"`
}

// JobType describes the "JobType" section.
type JobType struct {
	PluginName              string `json:"pluginName"`
	PSetName                string `json:"psetName"`
	AllowUndistributedCMSSW bool   `json:"allowUndistributedCMSSW"`
	MaxMemoryMB             int    `json:"maxMemoryMB"`
	NumCores                int    `json:"numCores"`
	// Zero leaves the CRAB default.
	MaxJobRuntimeMin int `json:"maxJobRuntimeMin"`
}

// Data describes the "Data" section.
type Data struct {
	InputDataset     string `json:"inputDataset"`
	InputDBS         string `json:"inputDBS"`
	Splitting        string `json:"splitting"`
	UnitsPerJob      int    `json:"unitsPerJob"`
	Publication      bool   `json:"publication"`
	OutputDatasetTag string `json:"outputDatasetTag"`
	OutLFNDirBase    string `json:"outLFNDirBase"`
	LumiMask         string `json:"lumiMask"`
}

// Site describes the "Site" section.
type Site struct {
	StorageSite string   `json:"storageSite"`
	Whitelist   []string `json:"whitelist"`
	Blacklist   []string `json:"blacklist"`
}

// DefaultConfig returns the baseline descriptor shared by every dataset.
func DefaultConfig() Config {
	return Config{
		General: General{
			WorkArea:        "tasks",
			TransferOutputs: true,
			TransferLogs:    true,
		},
		JobType: JobType{
			PluginName: "Analysis",
			// required on slc7
			AllowUndistributedCMSSW: true,
			MaxMemoryMB:             5000,
			NumCores:                2,
		},
		Data: Data{
			InputDBS:    "global",
			Splitting:   "EventAwareLumiBased",
			UnitsPerJob: 180000,
			Publication: true,
		},
	}
}

// Clone returns a deep copy of the descriptor. Mutating the copy never
// affects "c".
func (c *Config) Clone() (*Config, error) {
	out := &Config{}
	if err := deepcopy.Copy(out, c); err != nil {
		return nil, fmt.Errorf("copying submission config: %w", err)
	}
	return out, nil
}
