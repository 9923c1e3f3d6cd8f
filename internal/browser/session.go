package browser

import (
	"context"
	"sync"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

const (
	NoticeLoading  = "Loading..."
	NoticeEmpty    = "No properties found. Try adjusting your search criteria or filters."
	NoticeDegraded = "Using cached data. Live data may be temporarily unavailable."
	NoticeFailed   = "Unable to load properties. Live data is currently unavailable."
)

// Fetcher is what a Session needs from a Browser.
type Fetcher interface {
	Fetch(ctx context.Context, c filter.Criteria) ([]models.Listing, error)
	Refetch(ctx context.Context, c filter.Criteria) ([]models.Listing, error)
}

// State is the user's current input. It is replaced as a whole on every
// change, never mutated in place.
type State struct {
	Criteria filter.Criteria
	Search   string
}

// View is what a presentation layer renders.
type View struct {
	Listings    []models.Listing
	IsLoading   bool
	Err         error
	SearchQuery string
	Criteria    filter.Criteria
	loaded      bool
	// hasData is set when the last fetch returned listings, possibly from a
	// fallback source.
	hasData bool
}

// Notice returns the status line for the view, or "" when the listings
// speak for themselves.
func (v View) Notice() string {
	switch {
	case v.IsLoading:
		return NoticeLoading
	case v.Err != nil && v.hasData:
		return NoticeDegraded
	case v.Err != nil:
		return NoticeFailed
	case v.loaded && len(v.Listings) == 0:
		return NoticeEmpty
	default:
		return ""
	}
}

// NewView builds a settled view from a single fetch result, narrowing the
// listings by the search query.
func NewView(c filter.Criteria, search string, listings []models.Listing, err error) View {
	hasData := listings != nil
	if listings == nil {
		listings = []models.Listing{}
	}
	return View{
		Listings:    filter.Narrow(listings, search),
		Err:         err,
		SearchQuery: search,
		Criteria:    c,
		loaded:      true,
		hasData:     hasData,
	}
}

// Session holds one user's filter and search state and the result of the
// latest fetch cycle. Results of cycles started for an older state are
// dropped.
type Session struct {
	fetcher Fetcher

	mu         sync.Mutex
	state      State
	generation uint64
	listings   []models.Listing
	err        error
	loading    bool
	loaded     bool
	hasData    bool
}

func NewSession(f Fetcher) *Session {
	return &Session{fetcher: f}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetFilters parses raw, replaces the criteria and runs a fetch cycle for
// them. Malformed numbers are reported in the returned *filter.ValidationError
// but the valid part of raw is applied regardless. Fetch failures are not
// returned; they show up in View.
func (s *Session) SetFilters(ctx context.Context, raw filter.Raw) error {
	c, parseErr := filter.Parse(raw)

	s.mu.Lock()
	s.state = State{Criteria: c, Search: s.state.Search}
	gen := s.begin()
	s.mu.Unlock()

	listings, err := s.fetcher.Fetch(ctx, c)
	s.finish(gen, listings, err)
	return parseErr
}

// SetSearch replaces the search query. No fetch is needed: search only
// narrows the current listings.
func (s *Session) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Criteria: s.state.Criteria, Search: query}
}

// Refetch re-runs the full cycle for the current criteria, ignoring any
// cached result.
func (s *Session) Refetch(ctx context.Context) {
	s.mu.Lock()
	c := s.state.Criteria
	gen := s.begin()
	s.mu.Unlock()

	listings, err := s.fetcher.Refetch(ctx, c)
	s.finish(gen, listings, err)
}

// View returns the current listings narrowed by the search query.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		Listings:    filter.Narrow(s.listings, s.state.Search),
		IsLoading:   s.loading,
		Err:         s.err,
		SearchQuery: s.state.Search,
		Criteria:    s.state.Criteria,
		loaded:      s.loaded,
		hasData:     s.hasData,
	}
}

// begin must be called with mu held.
func (s *Session) begin() uint64 {
	s.generation++
	s.loading = true
	return s.generation
}

func (s *Session) finish(gen uint64, listings []models.Listing, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.hasData = listings != nil
	if listings == nil {
		listings = []models.Listing{}
	}
	s.listings = listings
	s.err = err
	s.loading = false
	s.loaded = true
}
