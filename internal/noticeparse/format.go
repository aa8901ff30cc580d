package noticeparse

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Format describes one notice layout as a set of patterns.
//
// FacilityPattern needs named groups id, address and count. RemoteClausePattern
// needs count. JobLinePattern needs id, title and count; RemoteLinePattern needs
// title and count. DatePattern needs month, day and year.
type Format struct {
	Name                string   `yaml:"name"`
	FacilityPattern     string   `yaml:"facility_pattern"`
	RemoteClausePattern string   `yaml:"remote_clause_pattern"`
	TableMarker         string   `yaml:"table_marker"`
	SkipPrefixes        []string `yaml:"skip_prefixes"`
	JobLinePattern      string   `yaml:"job_line_pattern"`
	RemoteLinePrefix    string   `yaml:"remote_line_prefix"`
	RemoteLinePattern   string   `yaml:"remote_line_pattern"`
	DatePattern         string   `yaml:"date_pattern"`
}

// WALayoffFormat is the layout of the Washington WARN notice the pipeline was built against.
var WALayoffFormat = Format{
	Name:                "wa-layoff",
	FacilityPattern:     `(?:\x{2022}|\x{F0B7})\s+(?P<id>[A-Z0-9]+)\s+(?i:facility\s+at)\s+(?P<address>.+?)\s+\((?i:approximately)\s+(?P<count>\d+)\s+(?i:employees?\s+affected)\);`,
	RemoteClausePattern: `(?i)plus\s+(?P<count>\d+)\s+affected\s+remote\s+employees\s+residing\s+within\s+the\s+state\s+of\s+Washington`,
	TableMarker:         "LIST OF AFFECTED JOB TITLES",
	SkipPrefixes:        []string{"Number of Affected Employees", "Facility Job Title"},
	JobLinePattern:      `^(?P<id>[A-Z0-9]+)\s+(?P<title>.+?)\s+(?P<count>\d+)$`,
	RemoteLinePrefix:    "Remote ",
	RemoteLinePattern:   `^Remote\s+(?P<title>.+?)\s+(?P<count>\d+)$`,
	DatePattern:         `(?P<month>January|February|March|April|May|June|July|August|September|October|November|December)\s+(?P<day>\d{1,2}),\s+(?P<year>\d{4})`,
}

// LoadFormat reads a Format definition from a YAML file. Unset patterns
// inherit from WALayoffFormat.
func LoadFormat(path string) (Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Format{}, eris.Wrapf(err, "noticeparse: read format %s", path)
	}
	return ParseFormat(data)
}

// ParseFormat decodes a YAML Format definition.
func ParseFormat(data []byte) (Format, error) {
	f := WALayoffFormat
	f.Name = ""
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Format{}, eris.Wrap(err, "noticeparse: decode format")
	}
	if f.Name == "" {
		return Format{}, eris.New("noticeparse: format name is required")
	}
	return f, nil
}

type compiledFormat struct {
	facility     *regexp.Regexp
	remoteClause *regexp.Regexp
	jobLine      *regexp.Regexp
	remoteLine   *regexp.Regexp
	date         *regexp.Regexp
}

func (f Format) compile() (*compiledFormat, error) {
	c := &compiledFormat{}
	var err error
	if c.facility, err = compilePattern(f.Name, "facility_pattern", f.FacilityPattern, "id", "address", "count"); err != nil {
		return nil, err
	}
	if c.remoteClause, err = compilePattern(f.Name, "remote_clause_pattern", f.RemoteClausePattern, "count"); err != nil {
		return nil, err
	}
	if c.jobLine, err = compilePattern(f.Name, "job_line_pattern", f.JobLinePattern, "id", "title", "count"); err != nil {
		return nil, err
	}
	if c.remoteLine, err = compilePattern(f.Name, "remote_line_pattern", f.RemoteLinePattern, "title", "count"); err != nil {
		return nil, err
	}
	if c.date, err = compilePattern(f.Name, "date_pattern", f.DatePattern, "month", "day", "year"); err != nil {
		return nil, err
	}
	return c, nil
}

func compilePattern(format, field, pattern string, groups ...string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "noticeparse: format %s: compile %s", format, field)
	}
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			return nil, eris.Errorf("noticeparse: format %s: %s is missing group %q", format, field, g)
		}
	}
	return re, nil
}
