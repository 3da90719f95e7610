package generator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cms-top/crabgen/crab"
	"github.com/cms-top/crabgen/datasets"
	"github.com/cms-top/crabgen/ledger"
	"github.com/cms-top/crabgen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls   []string
	parents map[string]string
	err     error
	// onCall runs before the lookup returns
	onCall func(dataset string)
}

func (f *fakeResolver) Parent(ctx context.Context, dataset string) (string, error) {
	f.calls = append(f.calls, dataset)
	if f.onCall != nil {
		f.onCall(dataset)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.parents[dataset], nil
}

type fakeRecorder struct {
	records []ledger.Record
	err     error
}

func (f *fakeRecorder) PutRequest(rec ledger.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeSubmitter struct {
	paths []string
}

func (f *fakeSubmitter) Submit(ctx context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return "task_" + filepath.Base(path), nil
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()

	root := t.TempDir()
	psetDir := filepath.Join(root, "src", "PhysicsTools", "NanoAOD", "test")
	require.NoError(t, os.MkdirAll(psetDir, 0755))
	for _, era := range []string{"2016", "2017", "2018"} {
		p := filepath.Join(psetDir, "topNano_v6p1_"+era+"_cfg.py")
		require.NoError(t, os.WriteFile(p, []byte("import FWCore.ParameterSet.Config as cms\n"), 0644))
	}

	log := logger.NewLogger("test", logger.DebugConfig())
	log.Discard()

	tpl := crab.DefaultConfig()
	return &Generator{
		Writer: &crab.Writer{
			RequestPrefix: "TopNanoAOD",
			ProductionTag: "v6p1",
			User:          "jdoe",
			StorageSite:   "T2_DE_DESY",
			OutputDir:     filepath.Join(root, "out"),
		},
		Template:      &tpl,
		Resolver:      &fakeResolver{},
		PSetRoot:      filepath.Join(root, "src"),
		ProductionTag: "v6p1",
		RunID:         "run1",
		Log:           log,
	}
}

func parseList(t *testing.T, raw string) datasets.List {
	t.Helper()
	l, err := datasets.Parse([]byte(raw))
	require.NoError(t, err)
	return l
}

func outputFiles(t *testing.T, g *Generator) []string {
	t.Helper()
	entries, err := os.ReadDir(g.Writer.OutputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunSingleMiniAOD(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	res := g.Resolver.(*fakeResolver)
	list := parseList(t, `{"2018": {"/DS1/MINIAODSIM": {"name": "foo"}}}`)

	results, err := g.Run(context.Background(), list, "2018")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"crab_TopNanoAODv6p1_foo__2018.py"}, outputFiles(t, g))
	assert.Empty(t, res.calls)
	assert.Equal(t, "/DS1/MINIAODSIM", results[0].InputDataset)

	b, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "config.Data.inputDataset = '/DS1/MINIAODSIM'")
	assert.Contains(t, string(b), "topNano_v6p1_2018_cfg.py")
}

func TestRunOtherEra(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	list := parseList(t, `{"2018": {"/DS1/MINIAODSIM": {"name": "foo"}}}`)

	results, err := g.Run(context.Background(), list, "2017")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, outputFiles(t, g))
}

func TestRunResolvesNanoAOD(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	res := g.Resolver.(*fakeResolver)
	res.parents = map[string]string{"/Bar/Nano/NANOAODSIM": "/Bar/Mini/MINIAODSIM"}
	res.onCall = func(dataset string) {
		// the parent is needed before anything is written
		_, err := os.Stat(filepath.Join(g.Writer.OutputDir, "crab_TopNanoAODv6p1_bar__2018.py"))
		assert.True(t, os.IsNotExist(err), "config written before parent lookup")
	}
	rec := &fakeRecorder{}
	g.Recorder = rec

	list := parseList(t, `{
		"2018": {
			"/Bar/Nano/NANOAODSIM": {"name": "bar", "memory": 4000},
			"/Baz/Mini/MINIAODSIM": {"name": "baz"}
		}
	}`)

	results, err := g.Run(context.Background(), list, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"/Bar/Nano/NANOAODSIM"}, res.calls)
	assert.Equal(t, "/Bar/Mini/MINIAODSIM", results[0].InputDataset)
	assert.Equal(t, "/Bar/Nano/NANOAODSIM", results[0].Dataset)

	bar, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(bar), "config.JobType.maxMemoryMB = 4000")
	baz, err := os.ReadFile(results[1].Path)
	require.NoError(t, err)
	assert.NotContains(t, string(baz), "config.JobType.maxMemoryMB = 4000")

	require.Len(t, rec.records, 2)
	assert.Equal(t, "TopNanoAODv6p1_bar__2018", rec.records[0].RequestName)
	assert.Equal(t, "T2_DE_DESY", rec.records[0].Site)
	assert.Equal(t, "run1", rec.records[0].RunID)
	assert.False(t, rec.records[0].Submitted)
}

func TestRunStopsOnResolverError(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	g.Resolver.(*fakeResolver).err = errors.New("das unavailable")

	list := parseList(t, `{"2018": {"/A/Nano/NANOAODSIM": {"name": "a"}, "/B/Mini/MINIAODSIM": {"name": "b"}}}`)
	_, err := g.Run(context.Background(), list, "2018")
	assert.ErrorContains(t, err, "/A/Nano/NANOAODSIM")
	assert.ErrorContains(t, err, "das unavailable")
	assert.Empty(t, outputFiles(t, g))
}

func TestRunMissingPSet(t *testing.T) {
	g := testGenerator(t)
	g.ProductionTag = "v9"
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))

	list := parseList(t, `{"2018": {"/DS1/MINIAODSIM": {"name": "foo"}}}`)
	_, err := g.Run(context.Background(), list, "2018")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "topNano_v9_2018_cfg.py")
}

func TestRunSubmit(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	g.Submitter = sub
	g.Recorder = rec

	list := parseList(t, `{"2016": {"/DS1/USER": {"name": "foo"}}}`)
	results, err := g.Run(context.Background(), list, "2016")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{results[0].Path}, sub.paths)
	assert.Equal(t, "task_crab_TopNanoAODv6p1_foo__2016.py", results[0].TaskName)

	// recorded before submitting, then updated with the task name
	require.Len(t, rec.records, 2)
	assert.False(t, rec.records[0].Submitted)
	assert.Empty(t, rec.records[0].TaskName)
	assert.True(t, rec.records[1].Submitted)
	assert.Equal(t, results[0].TaskName, rec.records[1].TaskName)
	assert.Equal(t, rec.records[0].RequestName, rec.records[1].RequestName)
}

func TestRunRecordFailureSkipsSubmit(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	sub := &fakeSubmitter{}
	g.Submitter = sub
	g.Recorder = &fakeRecorder{err: errors.New("database is locked")}

	list := parseList(t, `{"2016": {"/DS1/USER": {"name": "foo"}}}`)
	_, err := g.Run(context.Background(), list, "2016")
	assert.ErrorContains(t, err, "database is locked")
	assert.Empty(t, sub.paths)
}

func TestRunDryRun(t *testing.T) {
	g := testGenerator(t)
	var out bytes.Buffer
	g.DryRun = true
	g.Out = &out
	rec := &fakeRecorder{}
	g.Recorder = rec

	list := parseList(t, `{"2018": {"/DS1/MINIAODSIM": {"name": "foo"}}}`)
	results, err := g.Run(context.Background(), list, "2018")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, outputFiles(t, g))
	assert.Empty(t, rec.records)
	assert.True(t, strings.Contains(out.String(), "config.General.requestName = 'TopNanoAODv6p1_foo__2018'"))
}

func TestRunTemplateUnchanged(t *testing.T) {
	g := testGenerator(t)
	require.NoError(t, os.MkdirAll(g.Writer.OutputDir, 0755))
	before := *g.Template

	list := parseList(t, `{"2018": {"/A/MINIAODSIM": {"name": "a", "numCores": 4}}}`)
	_, err := g.Run(context.Background(), list, "2018")
	require.NoError(t, err)
	assert.Equal(t, before, *g.Template)
}
