package noticeparse

import (
	"strings"

	"github.com/sells-group/warn-cli/internal/model"
)

// tableState is the job-title table scanner state.
type tableState int

const (
	// stateBeforeTable holds until a line containing the table marker is seen.
	stateBeforeTable tableState = iota
	// stateInTable holds for the rest of the document. The table has no end marker,
	// so there is no transition out of this state.
	stateInTable
)

func (s tableState) String() string {
	switch s {
	case stateBeforeTable:
		return "BEFORE_TABLE"
	case stateInTable:
		return "IN_TABLE"
	default:
		return "unknown"
	}
}

// tableScanner is a two-state line automaton over the notice text.
//
//	BEFORE_TABLE --(line contains marker)--> IN_TABLE
//	IN_TABLE     --(any line)-------------> IN_TABLE
//
// The marker line itself is consumed by the transition. In IN_TABLE, header
// lines and remote-prefixed lines are skipped and unmatched lines are ignored.
type tableScanner struct {
	format Format
	re     *compiledFormat
	state  tableState
	rows   []model.JobTitleImpact
}

func newTableScanner(f Format, re *compiledFormat) *tableScanner {
	return &tableScanner{format: f, re: re, state: stateBeforeTable}
}

// Feed advances the automaton by one raw line.
func (s *tableScanner) Feed(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	switch s.state {
	case stateBeforeTable:
		if strings.Contains(line, s.format.TableMarker) {
			s.state = stateInTable
		}
	case stateInTable:
		if strings.Contains(line, s.format.TableMarker) || s.isHeader(line) {
			return
		}
		if s.format.RemoteLinePrefix != "" && strings.HasPrefix(line, s.format.RemoteLinePrefix) {
			return
		}
		if row, ok := s.parseRow(line); ok {
			s.rows = append(s.rows, row)
		}
	}
}

// State reports the current automaton state.
func (s *tableScanner) State() tableState { return s.state }

// Rows returns the table rows in encounter order.
func (s *tableScanner) Rows() []model.JobTitleImpact { return s.rows }

func (s *tableScanner) isHeader(line string) bool {
	for _, p := range s.format.SkipPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func (s *tableScanner) parseRow(line string) (model.JobTitleImpact, bool) {
	re := s.re.jobLine
	m := re.FindStringSubmatch(line)
	if m == nil {
		return model.JobTitleImpact{}, false
	}
	n, ok := parseInt(matchGroup(re, m, "count"))
	if !ok {
		return model.JobTitleImpact{}, false
	}
	return model.JobTitleImpact{
		FacilityID:    matchGroup(re, m, "id"),
		TitleFields:   model.TitleFields{JobTitle: strings.TrimSpace(matchGroup(re, m, "title"))},
		AffectedCount: model.NewCount(n),
	}, true
}
