package crab

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
)

// DefaultTemplate renders a descriptor in the Python form read by the CRAB
// client. The following values are available to templates:
//
// RequestName    the request name of the descriptor
// Dataset        the input dataset
// Sections       the sections, in order, each with its Name and Fields
//
// Each field has a Section, a Name and a Value, the Value being already
// formatted as a Python literal.
//
// See https://golang.org/pkg/text/template for more information
const DefaultTemplate = `# Generated by crabgen for {{.Dataset}}
from WMCore.Configuration import Configuration
config = Configuration()
{{range .Sections}}
config.section_('{{.Name}}')
{{- range .Fields}}
config.{{.Section}}.{{.Name}} = {{.Value}}
{{- end}}
{{end -}}
`

// Section is a named group of fields of a descriptor.
type Section struct {
	Name   string
	Fields []Field
}

// Field is a single attribute of a section.
type Field struct {
	Section string
	Name    string
	Value   string
}

type sectionBuilder struct {
	Section
}

func (s *sectionBuilder) addStr(name, v string) {
	if v != "" {
		s.Fields = append(s.Fields, Field{s.Name, name, pyString(v)})
	}
}

func (s *sectionBuilder) addInt(name string, v int) {
	if v != 0 {
		s.Fields = append(s.Fields, Field{s.Name, name, strconv.Itoa(v)})
	}
}

func (s *sectionBuilder) addBool(name string, v bool) {
	lit := "False"
	if v {
		lit = "True"
	}
	s.Fields = append(s.Fields, Field{s.Name, name, lit})
}

func (s *sectionBuilder) addList(name string, v []string) {
	if len(v) == 0 {
		return
	}
	quoted := make([]string, 0, len(v))
	for _, e := range v {
		quoted = append(quoted, pyString(e))
	}
	s.Fields = append(s.Fields, Field{s.Name, name, "[" + strings.Join(quoted, ", ") + "]"})
}

// pyString quotes "s" as a Python string literal. Control characters are
// written as escapes so the literal stays on one line.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Sections returns the set fields of the descriptor grouped by section.
// Empty strings, zero numbers and empty lists are omitted.
func (c *Config) Sections() []Section {
	g := &sectionBuilder{Section{Name: "General"}}
	g.addStr("requestName", c.General.RequestName)
	g.addStr("workArea", c.General.WorkArea)
	g.addBool("transferOutputs", c.General.TransferOutputs)
	g.addBool("transferLogs", c.General.TransferLogs)

	j := &sectionBuilder{Section{Name: "JobType"}}
	j.addStr("pluginName", c.JobType.PluginName)
	j.addStr("psetName", c.JobType.PSetName)
	j.addBool("allowUndistributedCMSSW", c.JobType.AllowUndistributedCMSSW)
	j.addInt("maxMemoryMB", c.JobType.MaxMemoryMB)
	j.addInt("numCores", c.JobType.NumCores)
	j.addInt("maxJobRuntimeMin", c.JobType.MaxJobRuntimeMin)

	d := &sectionBuilder{Section{Name: "Data"}}
	d.addStr("inputDataset", c.Data.InputDataset)
	d.addStr("inputDBS", c.Data.InputDBS)
	d.addStr("splitting", c.Data.Splitting)
	d.addInt("unitsPerJob", c.Data.UnitsPerJob)
	d.addBool("publication", c.Data.Publication)
	d.addStr("outputDatasetTag", c.Data.OutputDatasetTag)
	d.addStr("outLFNDirBase", c.Data.OutLFNDirBase)
	d.addStr("lumiMask", c.Data.LumiMask)

	s := &sectionBuilder{Section{Name: "Site"}}
	s.addStr("storageSite", c.Site.StorageSite)
	s.addList("whitelist", c.Site.Whitelist)
	s.addList("blacklist", c.Site.Blacklist)

	return []Section{g.Section, j.Section, d.Section, s.Section}
}

// ParseTemplate parses a descriptor template. An empty string selects
// DefaultTemplate.
func ParseTemplate(raw string) (*template.Template, error) {
	if raw == "" {
		raw = DefaultTemplate
	}
	tpl, err := template.New("crab").Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing submission template: %w", err)
	}
	return tpl, nil
}

// Render writes the descriptor to "w" using "tpl".
func Render(w io.Writer, tpl *template.Template, c *Config) error {
	return tpl.Execute(w, map[string]interface{}{
		"RequestName": c.General.RequestName,
		"Dataset":     c.Data.InputDataset,
		"Sections":    c.Sections(),
	})
}
