package store

import (
	"fmt"
	"regexp"
	"strings"
)

const tablePrefix = "kb_"

var kbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidKBName reports whether name is a legal, case-sensitive knowledgebase
// name: non-empty and composed only of letters, digits, underscore, hyphen.
func ValidKBName(name string) bool {
	return name != "" && kbNamePattern.MatchString(name)
}

// TableName derives the on-disk table name for kbName under schemaVersion:
// kb_<name with hyphens as underscores>_<version with dots as underscores>.
func TableName(kbName, schemaVersion string) string {
	sanitizedName := strings.ReplaceAll(kbName, "-", "_")
	sanitizedVersion := strings.ReplaceAll(schemaVersion, ".", "_")
	return fmt.Sprintf("%s%s_%s", tablePrefix, sanitizedName, sanitizedVersion)
}

// tableNamePattern recovers (sanitizedName, schemaVersion) from a table
// name produced by TableName. Because hyphens are folded to underscores on
// the way in, the recovered logical name only ever contains underscores —
// an accepted lossy inverse rather than a byte-exact round trip.
var tableNamePattern = regexp.MustCompile(`^kb_(.+)_(\d+_\d+_\d+)$`)

// ParseTableName recovers the logical KB name and schema version embedded
// in a table name. ok is false if name does not match the kb_*_<version>
// shape at all.
func ParseTableName(name string) (kbName, schemaVersion string, ok bool) {
	m := tableNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.ReplaceAll(m[2], "_", "."), true
}

// IsKBTable reports whether name looks like a table produced by TableName,
// for any schema version (used by ListTables to filter the underlying
// store's directory listing down to knowledgebase tables).
func IsKBTable(name string) bool {
	return tableNamePattern.MatchString(name)
}
