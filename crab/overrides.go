package crab

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/alecthomas/units"
	"github.com/hashicorp/go-multierror"
)

// SplittingAlgorithms lists the job splitting modes accepted by CRAB.
var SplittingAlgorithms = []string{
	"Automatic",
	"EventAwareLumiBased",
	"EventBased",
	"FileBased",
	"LumiBased",
}

type setter func(c *Config, v interface{}) error

// override is a dataset metadata key which may customize a descriptor.
type override struct {
	key  string
	path string
	set  setter
}

var overrides = []override{
	{"memory", "JobType.maxMemoryMB", func(c *Config, v interface{}) error {
		mb, err := toMemoryMB(v)
		if err != nil {
			return err
		}
		c.JobType.MaxMemoryMB = mb
		return nil
	}},
	{"max_runtime", "JobType.maxJobRuntimeMin", func(c *Config, v interface{}) error {
		i, err := toPositiveInt(v)
		if err != nil {
			return err
		}
		c.JobType.MaxJobRuntimeMin = i
		return nil
	}},
	{"numCores", "JobType.numCores", func(c *Config, v interface{}) error {
		i, err := toPositiveInt(v)
		if err != nil {
			return err
		}
		c.JobType.NumCores = i
		return nil
	}},
	{"splitting", "Data.splitting", func(c *Config, v interface{}) error {
		s, err := toString(v)
		if err != nil {
			return err
		}
		for _, algo := range SplittingAlgorithms {
			if s == algo {
				c.Data.Splitting = s
				return nil
			}
		}
		return fmt.Errorf("unknown splitting algorithm %q, expected one of %s", s, strings.Join(SplittingAlgorithms, ", "))
	}},
	{"unitsPerJob", "Data.unitsPerJob", func(c *Config, v interface{}) error {
		i, err := toPositiveInt(v)
		if err != nil {
			return err
		}
		c.Data.UnitsPerJob = i
		return nil
	}},
	{"inputDBS", "Data.inputDBS", func(c *Config, v interface{}) error {
		s, err := toString(v)
		if err != nil {
			return err
		}
		c.Data.InputDBS = s
		return nil
	}},
	{"lumiMask", "Data.lumiMask", func(c *Config, v interface{}) error {
		s, err := toString(v)
		if err != nil {
			return err
		}
		c.Data.LumiMask = s
		return nil
	}},
	{"publication", "Data.publication", func(c *Config, v interface{}) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		c.Data.Publication = b
		return nil
	}},
	{"whitelist", "Site.whitelist", func(c *Config, v interface{}) error {
		l, err := toStrings(v)
		if err != nil {
			return err
		}
		c.Site.Whitelist = l
		return nil
	}},
	{"blacklist", "Site.blacklist", func(c *Config, v interface{}) error {
		l, err := toStrings(v)
		if err != nil {
			return err
		}
		c.Site.Blacklist = l
		return nil
	}},
}

var overrideIndex = map[string]*override{}

func init() {
	for i := range overrides {
		o := &overrides[i]
		overrideIndex[o.key] = o
		overrideIndex[o.path] = o
	}
}

// OverrideKeys returns every accepted override key, in short and dotted form.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrideIndex))
	for k := range overrideIndex {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyOverrides applies dataset metadata overrides to "c".
// Unknown keys, badly typed values and keys naming the same attribute twice
// are all reported in the returned error.
func ApplyOverrides(c *Config, values map[string]interface{}) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result *multierror.Error
	applied := map[string]string{}

	for _, k := range keys {
		o, ok := overrideIndex[k]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("unknown override key %q", k))
			continue
		}
		if prev, dup := applied[o.path]; dup {
			result = multierror.Append(result, fmt.Errorf("override keys %q and %q both set %s", prev, k, o.path))
			continue
		}
		applied[o.path] = k

		if err := o.set(c, values[k]); err != nil {
			result = multierror.Append(result, fmt.Errorf("override %q: %w", k, err))
		}
	}
	return result.ErrorOrNil()
}

func toString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", v)
	}
	return s, nil
}

func toStrings(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...), nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got element %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", v)
}

func toInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %s", x)
		}
		return int(i), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected an integer, got %v", x)
		}
		return int(x), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toPositiveInt(v interface{}) (int, error) {
	i, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if i <= 0 {
		return 0, fmt.Errorf("expected a positive integer, got %d", i)
	}
	return i, nil
}

// toMemoryMB accepts a number of megabytes or a size string such as "4GB".
func toMemoryMB(v interface{}) (int, error) {
	if s, ok := v.(string); ok {
		b, err := units.ParseBase2Bytes(s)
		if err != nil {
			return 0, fmt.Errorf("invalid memory size %q: %w", s, err)
		}
		mb := int(b / units.MiB)
		if mb <= 0 {
			return 0, fmt.Errorf("memory size %q is below 1MB", s)
		}
		return mb, nil
	}
	return toPositiveInt(v)
}
