package crab

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverrides(t *testing.T) {
	c := DefaultConfig()
	err := ApplyOverrides(&c, map[string]interface{}{
		"memory":           json.Number("3000"),
		"max_runtime":      json.Number("1200"),
		"splitting":        "LumiBased",
		"unitsPerJob":      json.Number("20"),
		"inputDBS":         "phys03",
		"publication":      false,
		"lumiMask":         "golden.json",
		"blacklist":        []interface{}{"T1_US_FNAL"},
		"JobType.numCores": json.Number("4"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3000, c.JobType.MaxMemoryMB)
	assert.Equal(t, 1200, c.JobType.MaxJobRuntimeMin)
	assert.Equal(t, 4, c.JobType.NumCores)
	assert.Equal(t, "LumiBased", c.Data.Splitting)
	assert.Equal(t, 20, c.Data.UnitsPerJob)
	assert.Equal(t, "phys03", c.Data.InputDBS)
	assert.False(t, c.Data.Publication)
	assert.Equal(t, "golden.json", c.Data.LumiMask)
	assert.Equal(t, []string{"T1_US_FNAL"}, c.Site.Blacklist)
}

func TestApplyOverridesMemorySizes(t *testing.T) {
	cases := map[interface{}]int{
		"4GB":                4096,
		"2500MB":             2500,
		json.Number("1234"): 1234,
		float64(2000):       2000,
	}
	for in, expected := range cases {
		c := DefaultConfig()
		err := ApplyOverrides(&c, map[string]interface{}{"memory": in})
		require.NoError(t, err, "input %v", in)
		assert.Equal(t, expected, c.JobType.MaxMemoryMB, "input %v", in)
	}
}

func TestApplyOverridesReportsAllErrors(t *testing.T) {
	c := DefaultConfig()
	err := ApplyOverrides(&c, map[string]interface{}{
		"memroy":      json.Number("3000"),
		"General.foo": "bar",
		"splitting":   "RandomBased",
		"unitsPerJob": "many",
		"numCores":    json.Number("-1"),
		"publication": "yes",
		"whitelist":   []interface{}{"T2_CH_CERN", 3},
		"memory":      "lots",
	})
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected a multierror, got %T", err)
	assert.Len(t, merr.Errors, 8)
	assert.True(t, strings.Contains(err.Error(), `unknown override key "memroy"`))
	assert.True(t, strings.Contains(err.Error(), `unknown override key "General.foo"`))

	// failed overrides leave the descriptor untouched
	assert.Equal(t, DefaultConfig(), c)
}

func TestApplyOverridesDuplicateAttribute(t *testing.T) {
	c := DefaultConfig()
	err := ApplyOverrides(&c, map[string]interface{}{
		"memory":              json.Number("3000"),
		"JobType.maxMemoryMB": json.Number("4000"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both set JobType.maxMemoryMB")
}

func TestOverrideKeys(t *testing.T) {
	keys := OverrideKeys()
	assert.Contains(t, keys, "memory")
	assert.Contains(t, keys, "JobType.maxMemoryMB")
	assert.Contains(t, keys, "max_runtime")
	assert.NotContains(t, keys, "name")
}
