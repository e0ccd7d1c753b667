package domain

// Lead acquisition sources. Source captures provenance and is immutable
// after creation.
const (
	SourceManual       = "manual"
	SourceQRCode       = "qr_code"
	SourceSurvey       = "survey"
	SourceWebsite      = "website"
	SourceSocialMedia  = "social_media"
	SourceReferral     = "referral"
	SourceEvent        = "event"
	SourceColdOutreach = "cold_outreach"
	SourceOther        = "other"
)

var knownSources = map[string]struct{}{
	SourceManual:       {},
	SourceQRCode:       {},
	SourceSurvey:       {},
	SourceWebsite:      {},
	SourceSocialMedia:  {},
	SourceReferral:     {},
	SourceEvent:        {},
	SourceColdOutreach: {},
	SourceOther:        {},
}

// IsKnownSource reports whether source is a recognized acquisition source.
func IsKnownSource(source string) bool {
	_, ok := knownSources[source]
	return ok
}
