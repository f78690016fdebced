package page

import (
	"maps"
	"reflect"
)

// Defaults mirrored by the console list screens.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter represents the search and pagination criteria of a collection fetch
type Filter struct {
	Term     string         `json:"term"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Fields   map[string]any `json:"fields,omitempty"` // domain fields, e.g. status, roles, nodeType
}

// NewFilter returns the first page of an unfiltered collection
func NewFilter(pageSize int) Filter {
	f := Filter{Page: 1, PageSize: pageSize}
	f.Normalize(DefaultPageSize, 0)
	return f
}

// Normalize clamps page and page size. A maxSize of 0 disables the upper bound.
func (f *Filter) Normalize(defaultSize, maxSize int) {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultSize
	}
	if maxSize > 0 && f.PageSize > maxSize {
		f.PageSize = maxSize
	}
}

// Offset returns the row offset of the current page (0-based)
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Clone returns a copy that shares no map with f
func (f Filter) Clone() Filter {
	out := f
	if f.Fields != nil {
		out.Fields = maps.Clone(f.Fields)
	}
	return out
}

// Equal reports structural equality. A nil and an empty Fields map are equal.
func (f Filter) Equal(other Filter) bool {
	if f.Term != other.Term || f.Page != other.Page || f.PageSize != other.PageSize {
		return false
	}
	if len(f.Fields) == 0 && len(other.Fields) == 0 {
		return true
	}
	return reflect.DeepEqual(f.Fields, other.Fields)
}

// Variables renders the filter as the GraphQL `filter` input object.
// Term, page and pageSize always win over a domain field of the same name.
func (f Filter) Variables() map[string]any {
	vars := make(map[string]any, len(f.Fields)+3)
	for k, v := range f.Fields {
		vars[k] = v
	}
	vars["term"] = f.Term
	vars["page"] = f.Page
	vars["pageSize"] = f.PageSize
	return vars
}

// Patch is a partial update of a Filter. Nil pointers leave the field untouched;
// a nil value in Fields removes that domain field.
type Patch struct {
	Term     *string        `json:"term,omitempty"`
	Page     *int           `json:"page,omitempty"`
	PageSize *int           `json:"pageSize,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Apply merges the patch into a copy of f. Changing the term does not reset the page.
func (p Patch) Apply(f Filter) Filter {
	out := f.Clone()
	if p.Term != nil {
		out.Term = *p.Term
	}
	if p.Page != nil {
		out.Page = *p.Page
	}
	if p.PageSize != nil {
		out.PageSize = *p.PageSize
	}
	for k, v := range p.Fields {
		if v == nil {
			delete(out.Fields, k)
			continue
		}
		if out.Fields == nil {
			out.Fields = make(map[string]any, len(p.Fields))
		}
		out.Fields[k] = v
	}
	return out
}

// Result is one page of a server-side collection
type Result[T any] struct {
	Nodes       []T  `json:"nodes"`
	Count       int  `json:"count"`
	Page        int  `json:"page"`
	Pages       int  `json:"pages"`
	PageSize    int  `json:"pageSize,omitempty"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// NewResult builds a page whose derived fields honour the pagination invariants
func NewResult[T any](nodes []T, count, page, pageSize int) Result[T] {
	if count < 0 {
		count = 0
	}
	pages := Pages(count, pageSize)
	page = Clamp(page, pages)
	if nodes == nil {
		nodes = []T{}
	}
	return Result[T]{
		Nodes:       nodes,
		Count:       count,
		Page:        page,
		Pages:       pages,
		PageSize:    pageSize,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}

// Pages returns ceil(count/pageSize), 0 for an empty collection
func Pages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// Clamp bounds p to [1, max(pages,1)]
func Clamp(p, pages int) int {
	upper := pages
	if upper < 1 {
		upper = 1
	}
	if p < 1 {
		return 1
	}
	if p > upper {
		return upper
	}
	return p
}

// Consistent reports whether the derived fields match count, page and page size.
// Results without a page size only get their flags checked.
func (r Result[T]) Consistent() bool {
	if r.PageSize > 0 && r.Pages != Pages(r.Count, r.PageSize) {
		return false
	}
	return r.HasNext == (r.Page < r.Pages) && r.HasPrevious == (r.Page > 1)
}

// Clone returns a copy whose Nodes slice is not shared with r; nil stays nil
func (r *Result[T]) Clone() *Result[T] {
	if r == nil {
		return nil
	}
	c := *r
	if r.Nodes != nil {
		c.Nodes = append(make([]T, 0, len(r.Nodes)), r.Nodes...)
	}
	return &c
}

// Empty returns a zero-count page
func Empty[T any](pageSize int) Result[T] {
	return NewResult[T](nil, 0, 1, pageSize)
}
