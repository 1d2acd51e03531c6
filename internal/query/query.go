// Package query is the filter and pagination state machine behind list
// pages. Every change bumps a generation token; ticks and responses that
// carry an older token are ignored, so a slow early response can never
// overwrite a newer one.
//
// A Machine is not safe for concurrent use. It is meant to live inside a
// bubbletea model and be touched only from Update.
package query

import (
	"net/url"
	"strconv"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before fetching
const DefaultDebounce = 300 * time.Millisecond

// State of the machine
type State int

const (
	Idle State = iota
	Filtering
	Fetching
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Filtering:
		return "filtering"
	case Fetching:
		return "fetching"
	case Error:
		return "error"
	}
	return "unknown"
}

// Params is one list query. Scope narrows the listing to the user's own
// ("mine") or assigned ("assigned") tasks and is fixed per page.
type Params struct {
	Scope    string
	Search   string
	Priority string
	Project  string
	Status   string
	Page     int
	Limit    int
	SortBy   string
	Order    string
}

// DefaultParams is page 1 sorted by due date
func DefaultParams(limit int) Params {
	if limit <= 0 {
		limit = 10
	}
	return Params{Page: 1, Limit: limit, SortBy: "dueDate", Order: "asc"}
}

// Values encodes p as query parameters, omitting empty filters
func (p Params) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("scope", p.Scope)
	set("search", p.Search)
	set("priority", p.Priority)
	set("project", p.Project)
	set("status", p.Status)
	set("sortBy", p.SortBy)
	set("order", p.Order)
	v.Set("page", strconv.Itoa(max(p.Page, 1)))
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

// Filtered reports whether any narrowing filter is set
func (p Params) Filtered() bool {
	return p.Search != "" || p.Priority != "" || p.Project != "" || p.Status != ""
}

// Machine tracks one list page's query lifecycle
type Machine[T any] struct {
	defaults Params
	params   Params
	state    State
	gen      uint64

	items []T
	total int
	err   error

	resetOn func(error) bool
	onStale func()
}

// Option configures a Machine
type Option[T any] func(*Machine[T])

// ResetOn makes a failure for which fn is true restore the default filters
func ResetOn[T any](fn func(error) bool) Option[T] {
	return func(m *Machine[T]) { m.resetOn = fn }
}

// OnStale runs whenever a stale tick or response is dropped
func OnStale[T any](fn func()) Option[T] {
	return func(m *Machine[T]) { m.onStale = fn }
}

// New creates an idle machine at defaults
func New[T any](defaults Params, opts ...Option[T]) *Machine[T] {
	if defaults.Page < 1 {
		defaults.Page = 1
	}
	m := &Machine[T]{defaults: defaults, params: defaults}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine[T]) Params() Params     { return m.params }
func (m *Machine[T]) State() State       { return m.state }
func (m *Machine[T]) Generation() uint64 { return m.gen }
func (m *Machine[T]) Items() []T         { return m.items }
func (m *Machine[T]) Total() int         { return m.total }
func (m *Machine[T]) Err() error         { return m.err }

// Pages is the page count for the last result, at least 1
func (m *Machine[T]) Pages() int {
	if m.params.Limit <= 0 || m.total <= 0 {
		return 1
	}
	return (m.total + m.params.Limit - 1) / m.params.Limit
}

// Start schedules the first fetch with the current params
func (m *Machine[T]) Start() uint64 {
	return m.bump()
}

// Refresh refetches the current params, e.g. after a mutation
func (m *Machine[T]) Refresh() uint64 {
	return m.bump()
}

func (m *Machine[T]) SetSearch(s string) (uint64, bool) {
	return m.change(func(p *Params) { p.Search = s })
}

func (m *Machine[T]) SetPriority(s string) (uint64, bool) {
	return m.change(func(p *Params) { p.Priority = s })
}

func (m *Machine[T]) SetProject(s string) (uint64, bool) {
	return m.change(func(p *Params) { p.Project = s })
}

func (m *Machine[T]) SetStatus(s string) (uint64, bool) {
	return m.change(func(p *Params) { p.Status = s })
}

func (m *Machine[T]) SetSort(by, order string) (uint64, bool) {
	return m.change(func(p *Params) { p.SortBy, p.Order = by, order })
}

// SetPage moves to page n without touching filters
func (m *Machine[T]) SetPage(n int) (uint64, bool) {
	n = max(1, min(n, m.Pages()))
	if n == m.params.Page {
		return m.gen, false
	}
	m.params.Page = n
	return m.bump(), true
}

// Clear restores the default filters
func (m *Machine[T]) Clear() (uint64, bool) {
	if m.params == m.defaults {
		return m.gen, false
	}
	m.params = m.defaults
	return m.bump(), true
}

// change applies a filter edit. Any effective edit returns to page 1.
func (m *Machine[T]) change(fn func(*Params)) (uint64, bool) {
	next := m.params
	fn(&next)
	next.Page = 1
	if next == m.params {
		return m.gen, false
	}
	m.params = next
	return m.bump(), true
}

func (m *Machine[T]) bump() uint64 {
	m.gen++
	m.state = Filtering
	return m.gen
}

// Fire is called when the debounce for gen elapses. It returns the params
// to fetch, or false when a newer change superseded gen.
func (m *Machine[T]) Fire(gen uint64) (Params, bool) {
	if gen != m.gen {
		m.stale()
		return Params{}, false
	}
	m.state = Fetching
	return m.params, true
}

// Resolve stores a result for gen. Stale results are dropped.
func (m *Machine[T]) Resolve(gen uint64, items []T, total int) bool {
	if gen != m.gen {
		m.stale()
		return false
	}
	m.items = items
	m.total = total
	m.err = nil
	m.state = Idle
	return true
}

// Fail records an error for gen. When the error is one the machine resets
// on, the default filters are restored and the returned generation should
// be fetched; otherwise refetch is 0.
func (m *Machine[T]) Fail(gen uint64, err error) (accepted bool, refetch uint64) {
	if gen != m.gen {
		m.stale()
		return false, 0
	}
	m.err = err
	m.state = Error
	if m.resetOn != nil && m.resetOn(err) && m.params != m.defaults {
		m.params = m.defaults
		return true, m.bump()
	}
	return true, 0
}

func (m *Machine[T]) stale() {
	if m.onStale != nil {
		m.onStale()
	}
}
