package crab

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"text/template"
)

// MaxRequestNameLength is the longest request name accepted by CRAB.
const MaxRequestNameLength = 100

// requestNameChars matches the characters CRAB accepts in request names.
var requestNameChars = regexp.MustCompile(`^[a-zA-Z0-9_:-]+$`)

// Request describes the per-dataset customization of a descriptor.
type Request struct {
	// Short name of the sample, from the dataset metadata.
	Name string
	// Dataset given to CRAB as input.
	Dataset string
	Era     string
	// Absolute path to the parameter-set file.
	PSet      string
	Overrides map[string]interface{}
}

// Writer customizes descriptors and writes them to OutputDir.
type Writer struct {
	// Prefix of request names and output dataset tags, e.g. "TopNanoAOD".
	RequestPrefix string
	// Production tag, e.g. "v6p1".
	ProductionTag string
	// Grid user name used in the output LFN directory.
	User        string
	StorageSite string
	OutputDir   string
	Template    *template.Template
}

// Tag returns the request prefix joined with the production tag.
func (w *Writer) Tag() string {
	return w.RequestPrefix + w.ProductionTag
}

// RequestName returns the CRAB request name for a sample name and era.
func (w *Writer) RequestName(name, era string) string {
	return fmt.Sprintf("%s_%s__%s", w.Tag(), name, era)
}

// FileName returns the file name written for a request name.
func FileName(requestName string) string {
	return "crab_" + requestName + ".py"
}

// Customize returns a copy of "tpl" with the naming conventions and the
// overrides of "req" applied. "tpl" is not modified.
func (w *Writer) Customize(tpl *Config, req Request) (*Config, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("dataset %s: missing sample name", req.Dataset)
	}

	c, err := tpl.Clone()
	if err != nil {
		return nil, err
	}

	c.JobType.PSetName = req.PSet
	c.General.RequestName = w.RequestName(req.Name, req.Era)
	c.Data.OutputDatasetTag = fmt.Sprintf("%s_%s", w.Tag(), req.Era)
	c.Data.InputDataset = req.Dataset
	c.Data.OutLFNDirBase = fmt.Sprintf("/store/user/%s/topNanoAOD/%s/%s/", w.User, w.ProductionTag, req.Era)
	c.Site.StorageSite = w.StorageSite

	if err := ApplyOverrides(c, req.Overrides); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", req.Dataset, err)
	}

	if n := len(c.General.RequestName); n > MaxRequestNameLength {
		return nil, fmt.Errorf("request name %q is %d characters long, CRAB accepts at most %d",
			c.General.RequestName, n, MaxRequestNameLength)
	}
	if !requestNameChars.MatchString(c.General.RequestName) {
		return nil, fmt.Errorf("request name %q may only contain letters, digits, '_', '-' and ':'",
			c.General.RequestName)
	}
	return c, nil
}

// Write customizes "tpl" for "req" and writes the result to
// OutputDir/crab_<requestName>.py, replacing any existing file.
// It returns the path of the file and the customized descriptor.
func (w *Writer) Write(tpl *Config, req Request) (string, *Config, error) {
	c, err := w.Customize(tpl, req)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	if err := w.Render(&buf, c); err != nil {
		return "", nil, err
	}

	p := filepath.Join(w.OutputDir, FileName(c.General.RequestName))
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", nil, fmt.Errorf("writing submission config: %w", err)
	}
	return p, c, nil
}

// Render renders "c" with the Writer's template, or DefaultTemplate when
// none is set.
func (w *Writer) Render(out io.Writer, c *Config) error {
	tpl := w.Template
	if tpl == nil {
		var err error
		tpl, err = ParseTemplate("")
		if err != nil {
			return err
		}
	}
	if err := Render(out, tpl, c); err != nil {
		return fmt.Errorf("rendering submission config %s: %w", c.General.RequestName, err)
	}
	return nil
}
