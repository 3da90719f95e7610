// Package datasets loads the JSON dataset lists given to the generator.
//
// A dataset list maps an era to the datasets processed for that era, each
// with a metadata object:
//
//	{
//	  "2018": {
//	    "/TTTo2L2Nu_TuneCP5_13TeV-powheg-pythia8/.../MINIAODSIM": {
//	      "name": "TTTo2L2Nu",
//	      "unitsPerJob": 100000
//	    }
//	  }
//	}
//
// "name" is required. Every other key is a submission override.
package datasets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Entry is a dataset to process in a given era. Entries are not modified
// after loading.
type Entry struct {
	Era string
	// Dataset identifier, e.g. "/Primary/Processed/MINIAODSIM".
	Dataset string
	// Short sample name used in request names.
	Name string
	// Metadata keys other than "name".
	Overrides map[string]interface{}
}

// List maps era -> dataset identifier -> entry.
type List map[string]map[string]Entry

// LoadFiles loads and merges dataset list files in order. A later file
// replaces the datasets of an era defined by an earlier file.
func LoadFiles(paths ...string) (List, error) {
	out := List{}
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading dataset list: %w", err)
		}
		l, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("dataset list %s: %w", p, err)
		}
		for era, ds := range l {
			out[era] = ds
		}
	}
	return out, nil
}

// Parse parses a single dataset list document.
func Parse(raw []byte) (List, error) {
	var doc map[string]map[string]map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	// keep integers exact
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	out := List{}
	for era, ds := range doc {
		out[era] = map[string]Entry{}
		for id, meta := range ds {
			e, err := newEntry(era, id, meta)
			if err != nil {
				return nil, err
			}
			out[era][id] = e
		}
	}
	return out, nil
}

func newEntry(era, id string, meta map[string]interface{}) (Entry, error) {
	name, ok := meta["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Entry{}, fmt.Errorf("era %s, dataset %s: metadata requires a non-empty string \"name\"", era, id)
	}

	overrides := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k != "name" {
			overrides[k] = v
		}
	}

	return Entry{
		Era:       era,
		Dataset:   id,
		Name:      name,
		Overrides: overrides,
	}, nil
}

// Eras returns the eras of the list, sorted.
func (l List) Eras() []string {
	eras := make([]string, 0, len(l))
	for era := range l {
		eras = append(eras, era)
	}
	sort.Strings(eras)
	return eras
}

// Entries returns the entries of "era", or of every era when "era" is empty,
// ordered by era and then dataset identifier.
func (l List) Entries(era string) []Entry {
	var out []Entry
	for _, e := range l.Eras() {
		if era != "" && e != era {
			continue
		}
		ids := make([]string, 0, len(l[e]))
		for id := range l[e] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, l[e][id])
		}
	}
	return out
}
