// Package fsutil holds small filesystem helpers shared by the Indexer
// Orchestrator (C10) and the File Watcher (C14) — both need the identical
// directory deny-list so a watched change never disagrees with a full walk
// about what counts as project source.
package fsutil

// DefaultDenyDirs are directory names skipped everywhere pampax walks or
// watches a repo, per §4.10's discovery rule.
var DefaultDenyDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	".pampa":       true,
	".pampax":      true,
	"dist":         true,
	"build":        true,
	"tmp":          true,
	"temp":         true,
	".npm":         true,
	".yarn":        true,
	"$RECYCLE.BIN": true,
	".Trash":       true,
	".Trashes":     true,
}

// IsDeniedDir reports whether dirName should be skipped during a walk or
// watch registration.
func IsDeniedDir(dirName string) bool {
	return DefaultDenyDirs[dirName]
}
