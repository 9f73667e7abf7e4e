package services

import "strings"

// softChangeFiles may legitimately differ from upstream (sites rewrite
// their readmes). Compared case-insensitively against the relative path.
var softChangeFiles = map[string]struct{}{
	"readme.txt": {},
	"readme.md":  {},
}

// IsSoftChange reports whether a mismatch on relPath is tolerated outside
// strict mode.
func IsSoftChange(relPath string) bool {
	_, ok := softChangeFiles[strings.ToLower(relPath)]
	return ok
}
