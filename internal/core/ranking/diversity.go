package ranking

// Diversify reorders score-sorted items so that within any sliding window of
// size window at most maxPerAuthor share an author, keeping at most bound
// items. Each slot takes the highest-scored item that fits the cap; when
// none fits, the highest remaining is admitted so the pass always makes
// progress.
func Diversify[T any](items []T, authorOf func(T) string, window, maxPerAuthor, bound int) []T {
	if bound <= 0 || bound > len(items) {
		bound = len(items)
	}
	remaining := make([]T, len(items))
	copy(remaining, items)
	out := make([]T, 0, bound)

	for len(out) < bound && len(remaining) > 0 {
		pick := 0
		for i, it := range remaining {
			if fitsWindow(out, authorOf, authorOf(it), window, maxPerAuthor) {
				pick = i
				break
			}
		}
		out = append(out, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return out
}

// fitsWindow reports whether adding author keeps the trailing window within
// the per-author cap.
func fitsWindow[T any](selected []T, authorOf func(T) string, author string, window, maxPerAuthor int) bool {
	count := 1
	start := len(selected) - (window - 1)
	if start < 0 {
		start = 0
	}
	for _, it := range selected[start:] {
		if authorOf(it) == author {
			count++
		}
	}
	return count <= maxPerAuthor
}
