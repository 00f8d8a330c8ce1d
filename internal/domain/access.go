package domain

// Tier is a pricing tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// Feature is a gated capability.
type Feature string

const (
	FeatureReportExport    Feature = "report_export"
	FeatureAnswerReview    Feature = "answer_review"
	FeatureRecommendations Feature = "recommendations"
)

var tierFeatures = map[Tier]map[Feature]bool{
	TierFree: {
		FeatureReportExport: true,
	},
	TierPro: {
		FeatureReportExport:    true,
		FeatureRecommendations: true,
	},
	TierPremium: {
		FeatureReportExport:    true,
		FeatureAnswerReview:    true,
		FeatureRecommendations: true,
	},
}

// ParseTier maps a raw tier name to a Tier. Empty input yields the empty
// tier (no gating); unknown names are treated as free.
func ParseTier(raw string) Tier {
	if raw == "" {
		return ""
	}
	t := Tier(raw)
	if _, ok := tierFeatures[t]; ok {
		return t
	}
	return TierFree
}

// CanAccess reports whether the tier includes the feature.
func (t Tier) CanAccess(f Feature) bool {
	return tierFeatures[t][f]
}
