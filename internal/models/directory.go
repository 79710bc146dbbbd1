package models

import "time"

// SortOrder is the normalised sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort describes the requested ordering.
type Sort struct {
	By    string
	Order SortOrder
}

// DirectoryScope narrows a directory view to a population of members.
type DirectoryScope struct {
	IsStudent   *bool  `json:"isStudent,omitempty"`
	ExcludeType string `json:"excludeType,omitempty"`
}

// DirectoryQuery is the raw query input gathered from the console.
type DirectoryQuery struct {
	Search   string
	Filters  map[string]string
	Page     int
	PageSize int
	Sort     Sort
}

// QueryDescriptor is the normalised shape passed to the list endpoint.
type QueryDescriptor struct {
	Page      int               `json:"page" form:"page"`
	Limit     int               `json:"limit" form:"limit"`
	SortBy    string            `json:"sortBy" form:"sortBy"`
	SortOrder SortOrder         `json:"sortOrder" form:"sortOrder"`
	Search    string            `json:"search,omitempty" form:"search,omitempty"`
	Filters   map[string]string `json:"filters,omitempty" form:"-"`
	Scope     DirectoryScope    `json:"scope" form:"-"`
}

// Clone copies the descriptor including its filter map.
func (d QueryDescriptor) Clone() QueryDescriptor {
	out := d
	if d.Filters != nil {
		out.Filters = make(map[string]string, len(d.Filters))
		for k, v := range d.Filters {
			out.Filters[k] = v
		}
	}
	if d.Scope.IsStudent != nil {
		v := *d.Scope.IsStudent
		out.Scope.IsStudent = &v
	}
	return out
}

// FetchMode selects how a page is merged into the result buffer.
type FetchMode string

const (
	FetchReplace FetchMode = "replace"
	FetchAppend  FetchMode = "append"
)

// Valid reports whether the mode is supported.
func (m FetchMode) Valid() bool {
	return m == FetchReplace || m == FetchAppend
}

// FetchStatus is the fetch controller state.
type FetchStatus string

const (
	FetchIdle     FetchStatus = "IDLE"
	FetchFetching FetchStatus = "FETCHING"
)

// RemotePage is a single page returned by the member list endpoint.
type RemotePage struct {
	Members []Member
	Total   int
	Page    int
	Pages   int
	Limit   int
}

// FetchResult is returned for every applied fetch.
type FetchResult struct {
	Rows    []Member `json:"rows"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Pages   int      `json:"pages"`
	HasMore bool     `json:"hasMore"`
}

// RowState tags a buffered row with its reconciliation state.
type RowState string

const (
	RowCommitted     RowState = "COMMITTED"
	RowPendingDelete RowState = "PENDING_DELETE"
	RowPendingCreate RowState = "PENDING_CREATE"
)

// Row is one entry of a directory view buffer.
type Row struct {
	Member Member   `json:"member"`
	State  RowState `json:"state"`
}

// ViewSnapshot is a consistent copy of a directory view's state.
type ViewSnapshot struct {
	ID         string           `json:"id"`
	Scope      DirectoryScope   `json:"scope"`
	Status     FetchStatus      `json:"status"`
	Rows       []Row            `json:"rows"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Pages      int              `json:"pages"`
	HasMore    bool             `json:"hasMore"`
	LastError  string           `json:"lastError,omitempty"`
	Descriptor *QueryDescriptor `json:"descriptor,omitempty"`
	Selection  []string         `json:"selection"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page     int  `json:"page"`
	Pages    int  `json:"pages"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total_count"`
	HasMore  bool `json:"has_more"`
}

// RankedMember is a buffered member ordered by fuzzy match distance.
type RankedMember struct {
	Member   Member `json:"member"`
	Distance int    `json:"distance"`
}
