package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedger(t *testing.T) *Ledger {
	l, err := New(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, l.Init())
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRequests(t *testing.T) {
	l := testLedger(t)

	created := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	b := Record{
		RequestName:  "TopNanoAODv6p1_bar__2018",
		Dataset:      "/Bar/RunIIAutumn18NanoAODv6-Nano25Oct2019/NANOAODSIM",
		InputDataset: "/Bar/RunIIAutumn18MiniAOD-102X/MINIAODSIM",
		Era:          "2018",
		Site:         "T2_DE_DESY",
		Path:         "/tmp/crab_TopNanoAODv6p1_bar__2018.py",
		RunID:        "bpl5ka7g1u2g8tq3f0qg",
		CreatedAt:    created,
	}
	a := b
	a.RequestName = "TopNanoAODv6p1_alpha__2018"

	require.NoError(t, l.PutRequest(b))
	require.NoError(t, l.PutRequest(a))

	got, err := l.GetRequest(b.RequestName)
	require.NoError(t, err)
	if diff := deep.Equal(b, got); diff != nil {
		t.Error(diff)
	}

	b.Submitted = true
	b.TaskName = "200301_120000:jdoe_crab_TopNanoAODv6p1_bar__2018"
	require.NoError(t, l.PutRequest(b))

	list, err := l.ListRequests()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.RequestName, list[0].RequestName)
	assert.True(t, list[1].Submitted)
	assert.Equal(t, b.TaskName, list[1].TaskName)
}

func TestGetRequestNotFound(t *testing.T) {
	l := testLedger(t)
	_, err := l.GetRequest("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, l.PutRequest(Record{}))
}

func TestParents(t *testing.T) {
	l := testLedger(t)

	_, ok, err := l.GetParent("/A/B/NANOAODSIM")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.PutParent("/A/B/NANOAODSIM", "/A/B/MINIAODSIM"))
	p, ok, err := l.GetParent("/A/B/NANOAODSIM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/A/B/MINIAODSIM", p)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := New(path)
	require.NoError(t, err)
	require.NoError(t, l.Init())
	require.NoError(t, l.PutParent("x", "y"))
	require.NoError(t, l.Close())

	l, err = New(path)
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Init())
	p, ok, err := l.GetParent("x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "y", p)
}
