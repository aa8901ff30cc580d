// Package noticeparse extracts facility, remote-clause, separation-date, and
// job-title records from the text pages of a layoff notice.
package noticeparse

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
)

// Extraction holds every record kind recognized in one notice's pages.
type Extraction struct {
	Facilities      []model.FacilityImpact
	RemoteClauses   []model.RemoteClause
	SeparationDates []model.Date
	JobTitleImpacts []model.JobTitleImpact
}

// Apply replaces the extracted sections of n with x. Empty sections are
// stored as empty lists so the notice still carries every required key.
func (x *Extraction) Apply(n *model.Notice) {
	n.Facilities = orEmpty(x.Facilities)
	n.RemoteClauses = x.RemoteClauses
	n.SeparationDates = orEmpty(x.SeparationDates)
	n.JobTitleImpacts = orEmpty(x.JobTitleImpacts)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Adapter turns the pages of one notice format into an Extraction.
type Adapter interface {
	Name() string
	Parse(noticeID string, pages []model.Page) (*Extraction, error)
}

// Registry maps format names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// DefaultRegistry returns a registry holding the built-in formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(MustPatternAdapter(WALayoffFormat))
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[a.Name()] = a
}

// Resolve returns the adapter registered under name.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if a, ok := r.adapters[name]; ok {
		return a, nil
	}
	return nil, eris.Errorf("noticeparse: format %q is not registered", name)
}

// Names lists registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
