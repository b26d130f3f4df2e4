package models

type SortKey string

const (
	SortByName      SortKey = "name"
	SortBySuburb    SortKey = "suburb"
	SortByPriceAsc  SortKey = "price-ascending"
	SortByPriceDesc SortKey = "price-descending"
)

// FilterAll disables a brand/suburb/fuel-type filter.
const FilterAll = "all"

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// FilterSpec captures one search interaction: free-text query, exact-match
// filters, sort order and pagination. It is ephemeral state, rebuilt on every
// request.
type FilterSpec struct {
	SearchText string
	FuelType   string // a fuel-type key, or FilterAll
	Brand      string
	Suburb     string
	SortKey    SortKey
	MaxPrice   *float64 // cents-per-litre ceiling, nil when unset
	Page       int
	PageSize   int
}

func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		FuelType: FilterAll,
		Brand:    FilterAll,
		Suburb:   FilterAll,
		SortKey:  SortByName,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Normalised coerces out-of-range values to documented defaults rather than
// erroring: an unrecognised sort key falls back to name ordering, an
// unrecognised fuel type to "all", page to at least 1, and page size into
// [1, MaxPageSize].
func (f FilterSpec) Normalised() FilterSpec {
	switch f.SortKey {
	case SortByName, SortBySuburb, SortByPriceAsc, SortByPriceDesc:
	default:
		f.SortKey = SortByName
	}
	if f.FuelType == "" || (f.FuelType != FilterAll && !ValidFuelType(f.FuelType)) {
		f.FuelType = FilterAll
	}
	if f.Brand == "" {
		f.Brand = FilterAll
	}
	if f.Suburb == "" {
		f.Suburb = FilterAll
	}
	if f.MaxPrice != nil && *f.MaxPrice <= 0 {
		f.MaxPrice = nil
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}
