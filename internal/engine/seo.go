package engine

import (
	"context"

	"github.com/contentpulse/pulsebridge/internal/types"
)

// Engine-owned SEO metadata keys, mapped from payload SEO field names.
var seoMetaKeys = map[string]string{
	"meta_title":          "_contentpulse_meta_title",
	"meta_description":    "_contentpulse_meta_description",
	"meta_keywords":       "_contentpulse_meta_keywords",
	"meta_robots":         "_contentpulse_meta_robots",
	"og_title":            "_contentpulse_og_title",
	"og_description":      "_contentpulse_og_description",
	"twitter_title":       "_contentpulse_twitter_title",
	"twitter_description": "_contentpulse_twitter_description",
}

// Third-party SEO extension keys mirrored when the matching integration is
// active, so the extension's rendering takes precedence over ours.
const (
	yoastTitleKey       = "_yoast_wpseo_title"
	yoastDescriptionKey = "_yoast_wpseo_metadesc"
	rankMathTitleKey    = "rank_math_title"
	rankMathDescKey     = "rank_math_description"
)

// applySeoMeta writes the recognized SEO fields into the record's metadata
// under engine-owned keys. No-op when the payload carries no SEO fields.
// Metadata writes here are best-effort: failures are logged, the upsert
// still succeeds.
func (r *Reconciler) applySeoMeta(ctx context.Context, recordID int64, seo map[string]types.SeoValue) {
	if len(seo) == 0 {
		return
	}

	for field, metaKey := range seoMetaKeys {
		value, ok := seo[field]
		if !ok {
			continue
		}
		r.setMeta(ctx, recordID, metaKey, sanitizeText(string(value)))
	}

	mirrorYoast := r.opts.SEOIntegration == SEOIntegrationYoast || r.opts.SEOIntegration == SEOIntegrationAuto
	mirrorRankMath := r.opts.SEOIntegration == SEOIntegrationRankMath || r.opts.SEOIntegration == SEOIntegrationAuto

	if title, ok := seo["meta_title"]; ok {
		if mirrorYoast {
			r.setMeta(ctx, recordID, yoastTitleKey, sanitizeText(string(title)))
		}
		if mirrorRankMath {
			r.setMeta(ctx, recordID, rankMathTitleKey, sanitizeText(string(title)))
		}
	}
	if desc, ok := seo["meta_description"]; ok {
		if mirrorYoast {
			r.setMeta(ctx, recordID, yoastDescriptionKey, sanitizeText(string(desc)))
		}
		if mirrorRankMath {
			r.setMeta(ctx, recordID, rankMathDescKey, sanitizeText(string(desc)))
		}
	}
}

func (r *Reconciler) setMeta(ctx context.Context, recordID int64, key, value string) {
	if err := r.store.SetRecordMeta(ctx, recordID, key, value); err != nil {
		r.logger.Warn("seo meta write failed", "record_id", recordID, "key", key, "error", err)
	}
}
