package generate

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cms-top/crabgen/config"
	"github.com/cms-top/crabgen/das"
	"github.com/cms-top/crabgen/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags(t *testing.T) {
	c, h := newCommandHooks()

	var got Options
	var gotConf config.Config
	h.Run = func(ctx context.Context, conf config.Config, opts Options) error {
		got = opts
		gotConf = conf
		return nil
	}

	c.SetArgs([]string{
		"-e", "2018",
		"-d", "a.json", "--datasets", "b.json",
		"--site", "T2_DE_DESY",
		"-o", "out",
		"--tag", "v7",
		"--dry-run",
		"--DAS.MaxTries", "2",
	})
	require.NoError(t, c.Execute())

	assert.Equal(t, "2018", got.Era)
	assert.Equal(t, []string{"a.json", "b.json"}, got.Datasets)
	assert.Equal(t, "T2_DE_DESY", got.Site)
	assert.Equal(t, "out", got.Output)
	assert.True(t, got.DryRun)
	assert.False(t, got.Submit)
	assert.Equal(t, "v7", gotConf.ProductionTag)
	assert.Equal(t, 2, gotConf.DAS.MaxTries)
	assert.Equal(t, config.DefaultConfig().RequestPrefix, gotConf.RequestPrefix)
}

func TestSiteIsRequired(t *testing.T) {
	c, h := newCommandHooks()
	h.Run = func(ctx context.Context, conf config.Config, opts Options) error {
		t.Fatal("unexpected run")
		return nil
	}
	c.SetArgs([]string{"-d", "a.json"})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	assert.Error(t, c.Execute())
}

type testEnv struct {
	conf   config.Config
	opts   Options
	root   string
	parent string
}

func newTestEnv(t *testing.T) *testEnv {
	root := t.TempDir()

	psetDir := filepath.Join(root, "src", "PhysicsTools", "NanoAOD", "test")
	require.NoError(t, os.MkdirAll(psetDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(psetDir, "topNano_v6p1_2018_cfg.py"), nil, 0644))

	list := filepath.Join(root, "mc2018.json")
	require.NoError(t, os.WriteFile(list, []byte(`{
  "2018": {
    "/TTTo2L2Nu/RunIIAutumn18NanoAODv6/NANOAODSIM": {"name": "ttbar_dilep", "numCores": 4},
    "/ST_tW_top/RunIIAutumn18MiniAOD/MINIAODSIM": {"name": "st_tw_top"}
  }
}`), 0644))

	env := &testEnv{root: root, parent: "/TTTo2L2Nu/RunIIAutumn18MiniAOD/MINIAODSIM"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok", "nresults": 1, "data": [{"parent": [{"name": "` + env.parent + `"}]}]}`))
	}))
	t.Cleanup(srv.Close)

	conf := config.DefaultConfig()
	conf.InstallRoot = filepath.Join(root, "src")
	conf.User = "jdoe"
	conf.DAS.URL = srv.URL
	conf.DAS.CertFile = ""
	conf.Ledger.Path = filepath.Join(root, "ledger.db")
	conf.Metrics.TextfilePath = filepath.Join(root, "metrics", "crabgen.prom")
	conf.Logger.Level = "error"

	env.conf = conf
	env.opts = Options{
		Era:      "2018",
		Datasets: []string{list},
		Site:     "T2_DE_DESY",
		Output:   filepath.Join(root, "out"),
	}
	return env
}

func TestRun(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, Run(context.Background(), env.conf, env.opts))

	b, err := os.ReadFile(filepath.Join(env.opts.Output, "crab_TopNanoAODv6p1_ttbar_dilep__2018.py"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "config.Data.inputDataset = '"+env.parent+"'")
	assert.Contains(t, string(b), "config.JobType.numCores = 4")
	assert.Contains(t, string(b), "config.Site.storageSite = 'T2_DE_DESY'")

	_, err = os.Stat(filepath.Join(env.opts.Output, "crab_TopNanoAODv6p1_st_tw_top__2018.py"))
	assert.NoError(t, err)

	_, err = os.Stat(env.conf.Metrics.TextfilePath)
	assert.NoError(t, err)

	l, err := ledger.New(env.conf.Ledger.Path)
	require.NoError(t, err)
	defer l.Close()
	recs, err := l.ListRequests()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TopNanoAODv6p1_st_tw_top__2018", recs[0].RequestName)
	assert.Equal(t, env.parent, recs[1].InputDataset)

	p, ok, err := l.GetParent("/TTTo2L2Nu/RunIIAutumn18NanoAODv6/NANOAODSIM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, env.parent, p)
}

func TestRunOtherEra(t *testing.T) {
	env := newTestEnv(t)
	env.opts.Era = "2017"

	require.NoError(t, Run(context.Background(), env.conf, env.opts))
	entries, err := os.ReadDir(env.opts.Output)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunDryRun(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer
	env.opts.DryRun = true
	env.opts.Out = &out

	require.NoError(t, Run(context.Background(), env.conf, env.opts))
	assert.Contains(t, out.String(), "config.General.requestName = 'TopNanoAODv6p1_ttbar_dilep__2018'")
	_, err := os.Stat(env.opts.Output)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(env.conf.Ledger.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunErrors(t *testing.T) {
	env := newTestEnv(t)
	env.opts.Era = "2019"
	assert.ErrorContains(t, Run(context.Background(), env.conf, env.opts), "unknown era")

	env = newTestEnv(t)
	env.opts.Datasets = []string{filepath.Join(env.root, "missing.json")}
	assert.ErrorIs(t, Run(context.Background(), env.conf, env.opts), os.ErrNotExist)

	env = newTestEnv(t)
	env.opts.DryRun = true
	env.opts.Submit = true
	assert.Error(t, Run(context.Background(), env.conf, env.opts))
}

func TestRunMissingProxyWithoutNanoAOD(t *testing.T) {
	env := newTestEnv(t)
	env.conf.DAS.CertFile = filepath.Join(env.root, "x509up_u1000")

	list := filepath.Join(env.root, "mini2018.json")
	require.NoError(t, os.WriteFile(list, []byte(`{"2018": {"/DS1/MINIAODSIM": {"name": "foo"}}}`), 0644))
	env.opts.Datasets = []string{list}

	require.NoError(t, Run(context.Background(), env.conf, env.opts))
	_, err := os.Stat(filepath.Join(env.opts.Output, "crab_TopNanoAODv6p1_foo__2018.py"))
	assert.NoError(t, err)
}

func TestRunMissingProxyWithNanoAOD(t *testing.T) {
	env := newTestEnv(t)
	env.conf.DAS.CertFile = filepath.Join(env.root, "x509up_u1000")

	err := Run(context.Background(), env.conf, env.opts)
	assert.ErrorIs(t, err, das.ErrClientConfig)

	// the MiniAOD dataset sorts first and needs no lookup
	_, err = os.Stat(filepath.Join(env.opts.Output, "crab_TopNanoAODv6p1_st_tw_top__2018.py"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.opts.Output, "crab_TopNanoAODv6p1_ttbar_dilep__2018.py"))
	assert.True(t, os.IsNotExist(err))
}
