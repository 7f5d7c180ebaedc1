package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"stayengine/internal/app/dto"
	"stayengine/internal/app/policies"
	"stayengine/internal/app/principal"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
)

const (
	listHostBookingsKey  = "host.bookings.list"
	listGuestBookingsKey = "me.bookings.list"
)

// ListFilter is shared by the host and guest lists.
type ListFilter struct {
	Status       string `validate:"omitempty,oneof=pending confirmed in_progress completed cancelled_by_host cancelled_by_guest no_show cancelled"`
	Search       string `validate:"max=200"`
	Page         int    `validate:"gte=0"`
	ItemsPerPage int    `validate:"gte=0,lte=100"`
}

type ListHostBookingsQuery struct {
	ListFilter
}

func (ListHostBookingsQuery) Key() string { return listHostBookingsKey }

func (ListHostBookingsQuery) RequiredRole() principal.Role { return principal.RoleHost }

type ListGuestBookingsQuery struct {
	ListFilter
}

func (ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

func (ListGuestBookingsQuery) RequiredRole() principal.Role { return "" }

type ListBookingsHandler struct {
	Bookings        domainbooking.Store
	Listings        domainlistings.Source
	Guests          policies.GuestDirectory
	DefaultPageSize int
	Logger          *slog.Logger
}

func (h *ListBookingsHandler) HandleHost(ctx context.Context, q ListHostBookingsQuery) (dto.BookingPage, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return dto.BookingPage{}, principal.ErrUnauthenticated
	}
	return h.list(ctx, domainbooking.ListParams{HostID: domainlistings.HostID(caller.UserID)}, q.ListFilter)
}

func (h *ListBookingsHandler) HandleGuest(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingPage, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return dto.BookingPage{}, principal.ErrUnauthenticated
	}
	return h.list(ctx, domainbooking.ListParams{GuestID: caller.UserID}, q.ListFilter)
}

func (h *ListBookingsHandler) list(ctx context.Context, params domainbooking.ListParams, f ListFilter) (dto.BookingPage, error) {
	spec := domainbooking.FilterSpec{Search: f.Search}
	if status := strings.TrimSpace(f.Status); status != "" {
		if status == domainbooking.CategoryCancelled {
			spec.Status = domainbooking.CategoryCancelled
		} else {
			parsed, err := domainbooking.ParseStatus(status)
			if err != nil {
				return dto.BookingPage{}, err
			}
			spec.Status = parsed
		}
	}

	bookings, err := h.Bookings.List(ctx, params)
	if err != nil {
		return dto.BookingPage{}, err
	}
	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })

	items, err := h.listItems(ctx, bookings)
	if err != nil {
		return dto.BookingPage{}, err
	}
	perPage := f.ItemsPerPage
	if perPage <= 0 {
		perPage = h.DefaultPageSize
	}
	page := domainbooking.FilterBookings(items, spec, domainbooking.Pagination{Page: f.Page, ItemsPerPage: perPage})

	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "bookings listed",
			"host_id", params.HostID, "guest_id", params.GuestID, "status", spec.Status,
			"total_items", page.TotalItems, "page", page.CurrentPage)
	}
	return dto.MapBookingPage(page), nil
}

// listItems joins the listing titles and guest names used by search.
func (h *ListBookingsHandler) listItems(ctx context.Context, bookings []*domainbooking.Booking) ([]domainbooking.ListItem, error) {
	titles := make(map[domainlistings.ListingID]string)
	guestIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		guestIDs = append(guestIDs, b.GuestID)
		if _, seen := titles[b.ListingID]; seen || h.Listings == nil {
			continue
		}
		l, err := h.Listings.ByID(ctx, b.ListingID)
		switch {
		case err == nil:
			titles[b.ListingID] = l.Title
		case isNotFound(err):
			titles[b.ListingID] = ""
		default:
			return nil, fmt.Errorf("load listing %s: %w", b.ListingID, err)
		}
	}

	names := map[string]string{}
	if h.Guests != nil && len(guestIDs) > 0 {
		resolved, err := h.Guests.FullNames(ctx, guestIDs)
		if err != nil {
			return nil, err
		}
		names = resolved
	}

	items := make([]domainbooking.ListItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, domainbooking.ListItem{
			Booking:       b,
			GuestFullName: names[b.GuestID],
			ListingTitle:  titles[b.ListingID],
		})
	}
	return items, nil
}
