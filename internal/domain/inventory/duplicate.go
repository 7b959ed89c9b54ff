package inventory

// DuplicateMatch pairs a submitted (unsubmitted) candidate line with an
// existing catalogue item and the similarity score between them, per §3.
type DuplicateMatch struct {
	Candidate string
	Existing  *Item
	Score     float64
	Kind      MatchKind

	BatchNumber int
	ItemIndex   int

	// Shortfall is populated for outflow availability checks (§4.5): the
	// amount by which a requested quantity exceeds on-hand. Zero means the
	// check passed or does not apply.
	Shortfall float64
}

// NewDuplicateMatch scores candidate against existing and classifies it.
func NewDuplicateMatch(candidate string, existing *Item, batchNumber, itemIndex int) DuplicateMatch {
	score := Score(candidate, existing.Name)
	return DuplicateMatch{
		Candidate:   candidate,
		Existing:    existing,
		Score:       score,
		Kind:        ClassifyMatch(score),
		BatchNumber: batchNumber,
		ItemIndex:   itemIndex,
	}
}

// BestMatch scans candidates for the item with the highest score ≥ 0.5,
// returning (match, found), per §4.5: "retain the best match if its score
// ≥ 0.5".
func BestMatch(candidate string, items []*Item, batchNumber, itemIndex int) (DuplicateMatch, bool) {
	var best DuplicateMatch
	found := false
	for _, item := range items {
		m := NewDuplicateMatch(candidate, item, batchNumber, itemIndex)
		if m.Score < 0.5 {
			continue
		}
		if !found || m.Score > best.Score {
			best = m
			found = true
		}
	}
	return best, found
}
