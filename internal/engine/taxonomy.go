package engine

import (
	"context"
	"strings"

	"github.com/contentpulse/pulsebridge/internal/types"
)

// applyTaxonomies reconciles the record's category and tag sets against the
// payload. The payload's term set replaces the record's set wholesale; an
// absent or empty sequence leaves the existing taxonomy untouched.
// Term-level failures skip that term, never the upsert.
func (r *Reconciler) applyTaxonomies(ctx context.Context, recordID int64, categories, tags []types.TermRef) {
	r.replaceTerms(ctx, recordID, types.TaxonomyCategory, categories)
	r.replaceTerms(ctx, recordID, types.TaxonomyTag, tags)
}

func (r *Reconciler) replaceTerms(ctx context.Context, recordID int64, taxonomy string, refs []types.TermRef) {
	names := termNames(refs)
	if len(names) == 0 {
		return
	}

	termIDs := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := r.store.FindOrCreateTerm(ctx, taxonomy, name)
		if err != nil {
			r.logger.Warn("term resolution failed",
				"taxonomy", taxonomy, "name", name, "error", err)
			continue
		}
		termIDs = append(termIDs, id)
	}
	if len(termIDs) == 0 {
		return
	}

	if err := r.store.ReplaceRecordTerms(ctx, recordID, taxonomy, termIDs); err != nil {
		r.logger.Warn("taxonomy replacement failed",
			"taxonomy", taxonomy, "record_id", recordID, "error", err)
	}
}

// termNames flattens term references to trimmed, non-empty names.
func termNames(refs []types.TermRef) []string {
	var names []string
	for _, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
