package policies

import "context"

// GuestDirectory resolves guest ids to display names. Unknown ids are
// omitted from the result.
type GuestDirectory interface {
	FullNames(ctx context.Context, guestIDs []string) (map[string]string, error)
}
