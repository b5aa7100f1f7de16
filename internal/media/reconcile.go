// Package media stores uploaded images and decides which stored images an
// edit leaves orphaned.
package media

// Plan is the outcome of reconciling a gallery edit.
type Plan struct {
	// Final is the gallery to persist: kept images still present in the
	// current gallery, in submitted order, then uploads in upload order.
	Final []string
	// Orphaned lists each current image that was not kept, once.
	Orphaned []string
}

// Reconcile computes the gallery after an edit. current is the stored gallery,
// kept the subset the editor chose to retain and uploaded the URLs of files
// saved for this request. Kept URLs that are not in current are dropped, so a
// gallery never takes over a file it did not already own.
func Reconcile(current, kept, uploaded []string) Plan {
	owned := make(map[string]struct{}, len(current))
	for _, url := range current {
		owned[url] = struct{}{}
	}

	keep := make(map[string]struct{}, len(kept))
	final := make([]string, 0, len(kept)+len(uploaded))
	for _, url := range kept {
		if _, ok := owned[url]; !ok {
			continue
		}
		keep[url] = struct{}{}
		final = append(final, url)
	}
	final = append(final, uploaded...)

	var orphaned []string
	seen := make(map[string]struct{}, len(current))
	for _, url := range current {
		if _, ok := keep[url]; ok {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		orphaned = append(orphaned, url)
	}

	return Plan{Final: final, Orphaned: orphaned}
}
