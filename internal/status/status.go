// Package status maps ContentPulse lifecycle labels onto local record statuses.
package status

import "github.com/contentpulse/pulsebridge/internal/types"

var table = map[string]string{
	types.ExternalStatusPublished: types.StatusPublish,
	types.ExternalStatusScheduled: types.StatusFuture,
	types.ExternalStatusDraft:     types.StatusDraft,
	types.ExternalStatusReview:    types.StatusPending,
	types.ExternalStatusArchived:  types.StatusPrivate,
}

// Map translates an external lifecycle label into a local status.
// Unknown labels, including the empty string, map to draft. Total over
// strings: no error path.
func Map(external string) string {
	if local, ok := table[external]; ok {
		return local
	}
	return types.StatusDraft
}
