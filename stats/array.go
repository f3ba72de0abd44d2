package stats

// SortStrings returns a new slice holding values in ascending byte order.
// It is a recursive merge sort, so equal elements keep their input order.
func SortStrings(values []string) []string {
	if len(values) <= 1 {
		out := make([]string, len(values))
		copy(out, values)
		return out
	}

	mid := len(values) / 2
	left := SortStrings(values[:mid])
	right := SortStrings(values[mid:])

	sorted := make([]string, 0, len(values))
	i, j := 0, 0
	for i < len(left) || j < len(right) {
		// take from the right only when it is strictly smaller
		if i == len(left) || (j < len(right) && left[i] > right[j]) {
			sorted = append(sorted, right[j])
			j++
		} else {
			sorted = append(sorted, left[i])
			i++
		}
	}
	return sorted
}

// DedupeSorted drops consecutive duplicates. On sorted input the result is
// the distinct set in sorted order.
func DedupeSorted(sorted []string) []string {
	out := make([]string, 0, len(sorted))
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
