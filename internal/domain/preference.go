package domain

// Tier is one step of a quality or size preference
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// ValidateTier checks if a tier value is valid
func ValidateTier(tier Tier) bool {
	return tier == TierLow || tier == TierMedium || tier == TierHigh
}

// QualityPreference pairs a quality tier with a size tier. The pair resolves
// to a maximum target height through a fixed, total lookup table.
type QualityPreference struct {
	Quality Tier `json:"quality"`
	Size    Tier `json:"size"`
}

// UnboundedHeight means no height ceiling applies ("best available").
const UnboundedHeight = 0

// defaultCeiling is used when a tier pair falls outside the table, which can
// only happen for values that bypassed config validation.
const defaultCeiling = 720

var resolutionLimits = map[QualityPreference]int{
	{TierLow, TierLow}:       360,
	{TierLow, TierMedium}:    480,
	{TierLow, TierHigh}:      720,
	{TierMedium, TierLow}:    480,
	{TierMedium, TierMedium}: 720,
	{TierMedium, TierHigh}:   1080,
	{TierHigh, TierLow}:      720,
	{TierHigh, TierMedium}:   1080,
	{TierHigh, TierHigh}:     UnboundedHeight,
}

// HeightCeiling resolves the preference to its maximum target height.
// UnboundedHeight (0) means no ceiling.
func (p QualityPreference) HeightCeiling() int {
	ceiling, ok := resolutionLimits[p]
	if !ok {
		return defaultCeiling
	}
	return ceiling
}

// Unbounded reports whether the preference imposes no height ceiling.
func (p QualityPreference) Unbounded() bool {
	return p.HeightCeiling() == UnboundedHeight
}

// Validate checks both tiers against the closed set of recognized values.
func (p QualityPreference) Validate() bool {
	return ValidateTier(p.Quality) && ValidateTier(p.Size)
}
