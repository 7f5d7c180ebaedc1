package booking

import "strings"

const DefaultItemsPerPage = 10

// ListItem is a booking joined with the display fields the search looks at.
type ListItem struct {
	Booking       *Booking
	GuestFullName string
	ListingTitle  string
}

// FilterSpec narrows a booking list. Zero values disable each filter. Status
// also accepts the "cancelled" display category.
type FilterSpec struct {
	Status Status
	Search string
}

type Pagination struct {
	Page         int
	ItemsPerPage int
}

type Page struct {
	Items        []ListItem
	TotalItems   int
	TotalPages   int
	CurrentPage  int
	ItemsPerPage int
}

// FilterBookings filters by status, then by search text, then slices the
// filtered result into 1-based pages. Out-of-range pages are clamped.
func FilterBookings(items []ListItem, spec FilterSpec, p Pagination) Page {
	matched := make([]ListItem, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(spec.Search))
	for _, item := range items {
		if item.Booking == nil {
			continue
		}
		if !matchesStatus(item.Booking.Status, spec.Status) {
			continue
		}
		if needle != "" && !matchesSearch(item, needle) {
			continue
		}
		matched = append(matched, item)
	}

	perPage := p.ItemsPerPage
	if perPage <= 0 {
		perPage = DefaultItemsPerPage
	}
	totalPages := (len(matched) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page := min(max(p.Page, 1), totalPages)

	start := (page - 1) * perPage
	end := min(start+perPage, len(matched))
	return Page{
		Items:        matched[start:end],
		TotalItems:   len(matched),
		TotalPages:   totalPages,
		CurrentPage:  page,
		ItemsPerPage: perPage,
	}
}

func matchesStatus(status, want Status) bool {
	switch want {
	case "":
		return true
	case CategoryCancelled:
		return status.IsCancellation()
	}
	return status == want
}

func matchesSearch(item ListItem, needle string) bool {
	for _, field := range []string{item.GuestFullName, item.ListingTitle, item.Booking.ConfirmationCode} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// ListState keeps the filter and page of one booking list view. Changing the
// filter sends the view back to page 1.
type ListState struct {
	spec         FilterSpec
	page         int
	itemsPerPage int
}

func NewListState(itemsPerPage int) *ListState {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	return &ListState{page: 1, itemsPerPage: itemsPerPage}
}

func (s *ListState) SetFilter(spec FilterSpec) {
	spec.Search = strings.TrimSpace(spec.Search)
	if spec == s.spec {
		return
	}
	s.spec = spec
	s.page = 1
}

func (s *ListState) SetPage(page int) { s.page = page }

func (s *ListState) Filter() FilterSpec { return s.spec }

func (s *ListState) Page() int { return s.page }

// Apply filters items with the current state and remembers the clamped page.
func (s *ListState) Apply(items []ListItem) Page {
	out := FilterBookings(items, s.spec, Pagination{Page: s.page, ItemsPerPage: s.itemsPerPage})
	s.page = out.CurrentPage
	return out
}
