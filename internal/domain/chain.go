package domain

// Selector is one expression the extraction engine understands, tagged with
// the reason it was put on the chain.
type Selector struct {
	Expr      string `json:"expr"`
	Rationale string `json:"rationale"`
}

// Rationale tags attached to chain entries.
const (
	RationaleCombined     = "combined within ceiling"
	RationaleMerge        = "video+best-audio merge"
	RationaleVideoOnly    = "video-only degraded"
	RationaleGenericBest  = "generic best"
	RationaleGenericWorst = "generic worst"
)

// Catch-all expressions appended to every chain. The engine may discover
// formats the probe never saw, so these are present even for an empty catalog.
const (
	exprGenericBest  = "best"
	exprGenericWorst = "worst"
)

// SelectorChain is the ordered fallback sequence the orchestrator walks,
// most specific first. A chain is never empty: it always ends with the two
// unconditional catch-alls, best before worst.
type SelectorChain []Selector

// Expressions returns the chain's selector expressions in order.
func (c SelectorChain) Expressions() []string {
	exprs := make([]string, len(c))
	for i, s := range c {
		exprs[i] = s.Expr
	}
	return exprs
}

// BuildChain produces the fallback chain for a classified catalog and a
// quality/size preference. Fidelity-first ordering: qualifying combined
// entries, then an explicit video+audio merge, then bare video-only as a
// degraded last resort, then the mandatory generic catch-alls.
func BuildChain(cc ClassifiedCatalog, pref QualityPreference) SelectorChain {
	var chain SelectorChain
	ceiling := pref.HeightCeiling()

	// Step 1: combined entries inside the ceiling, highest first. The
	// specific format id beats a generic height-bounded expression. Entries
	// with unknown height only qualify when no ceiling applies, since their
	// fit cannot be verified.
	for _, e := range cc.Combined {
		if qualifies(e, ceiling) {
			chain = append(chain, Selector{Expr: e.ID, Rationale: RationaleCombined})
		}
	}

	// Step 2: no combined entry qualified, but separate tracks exist. Merge
	// the best video-only pick with the best available audio-only entry.
	if len(chain) == 0 && len(cc.VideoOnly) > 0 && len(cc.AudioOnly) > 0 {
		video := pickVideo(cc.VideoOnly, ceiling)
		audio := cc.AudioOnly[0]
		chain = append(chain, Selector{Expr: video.ID + "+" + audio.ID, Rationale: RationaleMerge})
	}

	// Step 3: nothing above applied; offer the video-only entries alone.
	// The result has no audio, which the report surfaces as degraded.
	if len(chain) == 0 {
		for _, e := range cc.VideoOnly {
			chain = append(chain, Selector{Expr: e.ID, Rationale: RationaleVideoOnly})
		}
	}

	// The two unconditional catch-alls terminate every chain.
	chain = append(chain,
		Selector{Expr: exprGenericBest, Rationale: RationaleGenericBest},
		Selector{Expr: exprGenericWorst, Rationale: RationaleGenericWorst},
	)

	return dedupe(chain)
}

// qualifies reports whether a combined entry fits under the ceiling.
func qualifies(e FormatEntry, ceiling int) bool {
	if ceiling == UnboundedHeight {
		return true
	}
	return e.HasHeight() && e.Height <= ceiling
}

// pickVideo chooses the merge candidate: the highest video-only entry inside
// the ceiling, or the closest one above it when nothing fits (a too-tall
// track still beats none at all).
func pickVideo(videoOnly []FormatEntry, ceiling int) FormatEntry {
	if ceiling != UnboundedHeight {
		for _, e := range videoOnly {
			if e.HasHeight() && e.Height <= ceiling {
				return e
			}
		}
		// Entries are sorted descending, so the last known-height entry is
		// the smallest overshoot.
		for i := len(videoOnly) - 1; i >= 0; i-- {
			if videoOnly[i].HasHeight() {
				return videoOnly[i]
			}
		}
	}
	return videoOnly[0]
}

// dedupe removes repeated expressions, keeping first occurrence order.
func dedupe(chain SelectorChain) SelectorChain {
	seen := make(map[string]struct{}, len(chain))
	out := chain[:0]
	for _, s := range chain {
		if _, dup := seen[s.Expr]; dup {
			continue
		}
		seen[s.Expr] = struct{}{}
		out = append(out, s)
	}
	return out
}
