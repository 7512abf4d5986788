package backup

import "grindvault/internal/github"

// SelectForDeletion decides which remote snapshots age out of the retention
// window. The input must be ordered newest first, as the content client
// returns it; the max newest entries are kept and the rest returned for
// deletion. Pure function, no side effects.
func SelectForDeletion(snapshots []github.Content, max int) []github.Content {
	if max < 0 {
		max = 0
	}
	if len(snapshots) <= max {
		return nil
	}
	return snapshots[max:]
}
