// Package generator turns dataset lists into CRAB submission descriptors.
package generator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cms-top/crabgen/crab"
	"github.com/cms-top/crabgen/datasets"
	"github.com/cms-top/crabgen/ledger"
	"github.com/cms-top/crabgen/logger"
	"github.com/cms-top/crabgen/metrics"
	"github.com/cms-top/crabgen/pset"
)

// Resolver looks up the parent of a dataset.
type Resolver interface {
	Parent(ctx context.Context, dataset string) (string, error)
}

// Recorder stores generated requests.
type Recorder interface {
	PutRequest(rec ledger.Record) error
}

// Submitter hands a written descriptor to CRAB and returns the task name.
type Submitter interface {
	Submit(ctx context.Context, path string) (string, error)
}

// Result describes one generated descriptor.
type Result struct {
	RequestName  string
	Dataset      string
	InputDataset string
	Era          string
	Path         string
	TaskName     string
}

// Generator processes dataset list entries one at a time.
type Generator struct {
	Writer *crab.Writer
	// Template is the descriptor every request starts from. It is never
	// modified.
	Template *crab.Config
	// Resolver is required when a list contains NanoAOD datasets.
	Resolver Resolver
	// Recorder and Submitter are optional.
	Recorder  Recorder
	Submitter Submitter
	// PSetRoot is searched for parameter-set files.
	PSetRoot      string
	ProductionTag string
	// DryRun renders descriptors to Out instead of writing them.
	DryRun bool
	Out    io.Writer
	RunID  string
	Log    *logger.Logger
}

// Run generates a descriptor for every entry of "era" in "list", or of all
// eras when "era" is empty. It stops at the first failing dataset.
func (g *Generator) Run(ctx context.Context, list datasets.List, era string) ([]Result, error) {
	entries := list.Entries(era)
	if len(entries) == 0 {
		g.Log.Warn("No datasets to process", "era", era)
		return nil, nil
	}

	var results []Result
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := g.process(ctx, entry)
		if err != nil {
			return results, fmt.Errorf("dataset %s: %w", entry.Dataset, err)
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (g *Generator) process(ctx context.Context, entry datasets.Entry) (*Result, error) {
	log := g.Log.WithFields("dataset", entry.Dataset, "era", entry.Era)

	input := entry.Dataset
	switch kind := datasets.KindOf(entry.Dataset); {
	case kind.NeedsParent():
		if g.Resolver == nil {
			return nil, fmt.Errorf("%s dataset needs a parent lookup but no resolver is configured", kind)
		}
		parent, err := g.Resolver.Parent(ctx, entry.Dataset)
		if err != nil {
			return nil, fmt.Errorf("resolving parent: %w", err)
		}
		log.Info("Resolved parent dataset", "parent", parent)
		input = parent
	case kind == datasets.Unknown:
		log.Warn("Unknown data tier, using the dataset as input")
	}

	psetPath, err := pset.Find(pset.FileName(g.ProductionTag, entry.Era), g.PSetRoot)
	if err != nil {
		return nil, err
	}

	req := crab.Request{
		Name:      entry.Name,
		Dataset:   input,
		Era:       entry.Era,
		PSet:      psetPath,
		Overrides: entry.Overrides,
	}

	if g.DryRun {
		c, err := g.Writer.Customize(g.Template, req)
		if err != nil {
			return nil, err
		}
		log.Info("Dry run, not writing", "request", c.General.RequestName)
		if g.Out != nil {
			if err := g.Writer.Render(g.Out, c); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	path, c, err := g.Writer.Write(g.Template, req)
	if err != nil {
		return nil, err
	}
	metrics.ConfigWritten(entry.Era)
	log.Info("Wrote submission config", "path", path)

	res := &Result{
		RequestName:  c.General.RequestName,
		Dataset:      entry.Dataset,
		InputDataset: input,
		Era:          entry.Era,
		Path:         path,
	}

	var rec *ledger.Record
	if g.Recorder != nil {
		rec = &ledger.Record{
			RequestName:  res.RequestName,
			Dataset:      res.Dataset,
			InputDataset: res.InputDataset,
			Era:          res.Era,
			Site:         c.Site.StorageSite,
			Path:         res.Path,
			RunID:        g.RunID,
			CreatedAt:    time.Now().UTC(),
		}
		// recorded before submitting so that every submitted task has a record
		if err := g.Recorder.PutRequest(*rec); err != nil {
			return nil, fmt.Errorf("recording request: %w", err)
		}
	}

	if g.Submitter != nil {
		task, err := g.Submitter.Submit(ctx, path)
		metrics.Submission(err)
		if err != nil {
			return nil, err
		}
		log.Info("Submitted", "task", task)
		res.TaskName = task

		if rec != nil {
			rec.Submitted = true
			rec.TaskName = task
			if err := g.Recorder.PutRequest(*rec); err != nil {
				return nil, fmt.Errorf("recording submission of task %s: %w", task, err)
			}
		}
	}
	return res, nil
}
