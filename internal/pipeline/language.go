package pipeline

// majorityLanguage returns the most frequent tag. Ties go to the tag seen
// first; an empty input yields fallback.
func majorityLanguage(tags []string, fallback string) string {
	if len(tags) == 0 {
		return fallback
	}

	counts := make(map[string]int, len(tags))
	var order []string
	for _, tag := range tags {
		if _, seen := counts[tag]; !seen {
			order = append(order, tag)
		}
		counts[tag]++
	}

	best := order[0]
	for _, tag := range order[1:] {
		if counts[tag] > counts[best] {
			best = tag
		}
	}
	return best
}
