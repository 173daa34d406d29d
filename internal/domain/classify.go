package domain

import "sort"

// ClassifiedCatalog is the Classifier's partitioned view of a FormatCatalog.
// Each slice is sorted best-first (descending height, unknown height last,
// bitrate then original catalog order as tie-breakers).
type ClassifiedCatalog struct {
	Combined  []FormatEntry
	VideoOnly []FormatEntry
	AudioOnly []FormatEntry

	// AdaptiveGroups holds the adaptive-segment entries regrouped by
	// container/codec hint. Variants with the same nominal height but
	// different containers are not interchangeable, so they never share
	// a group.
	AdaptiveGroups []AdaptiveGroup
}

// AdaptiveGroup is one container/codec bucket of adaptive-segment entries.
type AdaptiveGroup struct {
	Key     string // "<container>/<vcodec>"
	Entries []FormatEntry
}

// AdaptiveDetected reports whether any adaptive-segment entry was seen.
func (cc ClassifiedCatalog) AdaptiveDetected() bool {
	return len(cc.AdaptiveGroups) > 0
}

// BestAdaptive returns the highest-quality adaptive-segment entry across all
// groups, or nil if none exists.
func (cc ClassifiedCatalog) BestAdaptive() *FormatEntry {
	var best *FormatEntry
	for i := range cc.AdaptiveGroups {
		for j := range cc.AdaptiveGroups[i].Entries {
			e := &cc.AdaptiveGroups[i].Entries[j]
			if best == nil || e.Height > best.Height {
				best = e
			}
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// Classify partitions a catalog by kind and groups its adaptive-segment
// entries by container/codec hint. Pure function of its input: the catalog is
// never modified and the same catalog always yields the same ordering.
func Classify(catalog FormatCatalog) ClassifiedCatalog {
	var cc ClassifiedCatalog

	adaptiveByKey := make(map[string][]FormatEntry)
	var adaptiveKeys []string

	for _, entry := range catalog {
		switch entry.Kind {
		case KindVideoOnly:
			cc.VideoOnly = append(cc.VideoOnly, entry)
		case KindAudioOnly:
			cc.AudioOnly = append(cc.AudioOnly, entry)
		default:
			cc.Combined = append(cc.Combined, entry)
		}

		if entry.IsAdaptive() {
			key := entry.Container + "/" + entry.VideoCodec
			if _, seen := adaptiveByKey[key]; !seen {
				adaptiveKeys = append(adaptiveKeys, key)
			}
			adaptiveByKey[key] = append(adaptiveByKey[key], entry)
		}
	}

	sortByQuality(cc.Combined)
	sortByQuality(cc.VideoOnly)
	sortByQuality(cc.AudioOnly)

	// Groups keep first-seen order so classification stays deterministic
	// regardless of map iteration.
	for _, key := range adaptiveKeys {
		entries := adaptiveByKey[key]
		sortByQuality(entries)
		cc.AdaptiveGroups = append(cc.AdaptiveGroups, AdaptiveGroup{Key: key, Entries: entries})
	}

	return cc
}

// sortByQuality orders entries descending by height with unknown heights
// last. Equal heights fall back to bitrate, then to the incoming order: the
// stable sort guarantees ties are never resolved by indeterminate iteration.
func sortByQuality(entries []FormatEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasHeight() != b.HasHeight() {
			return a.HasHeight()
		}
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		return a.Bitrate > b.Bitrate
	})
}
