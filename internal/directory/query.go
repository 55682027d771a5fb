package directory

// Date range presets accepted by the upstream directory endpoint. Custom
// ranges carry explicit from/to bounds instead of a preset name.
const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	PresetWeek      = "week"
	PresetMonth     = "month"
	PresetCustom    = "custom"
)

// Query is the combined search/filter/sort/page state driving a directory
// fetch. It is a plain structured value plus reset rules: any change to a
// result-set-affecting dimension resets the page to 1, so the console never
// requests an out-of-range page against a shrunken result set. The struct is
// serializable because it lives inside the console session.
type Query struct {
	Search     string `json:"search"`
	Gender     string `json:"gender"`
	Verified   string `json:"verified"`   // tri-state: "", "true", "false"
	DatePreset string `json:"datePreset"` // one of the Preset* constants or ""
	From       string `json:"from"`       // YYYY-MM-DD, custom range only
	To         string `json:"to"`         // YYYY-MM-DD, custom range only
	Age        string `json:"age"`        // "N" or "N-M"
	SortBy     string `json:"sortBy"`
	SortOrder  string `json:"sortOrder"` // "asc" or "desc"
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

// NewQuery returns the default query: no filters, first page, fixed limit.
func NewQuery(limit int) *Query {
	return &Query{Page: 1, Limit: limit}
}

func (q *Query) resetPage() {
	q.Page = 1
}

// SetSearch updates the free-form search text.
func (q *Query) SetSearch(search string) {
	q.Search = search
	q.resetPage()
}

// SetGender updates the gender filter ("" clears it).
func (q *Query) SetGender(gender string) {
	q.Gender = gender
	q.resetPage()
}

// SetVerified updates the tri-state verification filter.
func (q *Query) SetVerified(verified string) {
	q.Verified = verified
	q.resetPage()
}

// SetDatePreset selects a named date range. Choosing anything other than
// the custom preset discards any explicit bounds.
func (q *Query) SetDatePreset(preset string) {
	q.DatePreset = preset
	if preset != PresetCustom {
		q.From = ""
		q.To = ""
	}
	q.resetPage()
}

// SetCustomRange sets explicit from/to bounds and implies the custom preset.
func (q *Query) SetCustomRange(from, to string) {
	q.DatePreset = PresetCustom
	q.From = from
	q.To = to
	q.resetPage()
}

// SetAge updates the age filter: a single integer string or a "min-max"
// range. Interpretation of the format happens at request-building time.
func (q *Query) SetAge(age string) {
	q.Age = age
	q.resetPage()
}

// SetSort updates the sort descriptor.
func (q *Query) SetSort(field, order string) {
	q.SortBy = field
	q.SortOrder = order
	q.resetPage()
}

// SetPage moves to another page without touching any other dimension.
func (q *Query) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	q.Page = page
}
