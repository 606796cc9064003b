package evaluator

import "strings"

// resolveColumnRef translates a "$.datasources.{ds}.{col}" or
// "$.enrichment.{name}" reference (or a bare "$.{col}" column reference) into
// its backing column name per the I4 mapping. ok is false for anything it
// doesn't recognize as a ref at all.
func resolveColumnRef(ref string) (column string, ok bool) {
	ref = strings.TrimPrefix(ref, "$.")
	switch {
	case strings.HasPrefix(ref, "datasources."):
		rest := strings.TrimPrefix(ref, "datasources.")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			return "", false
		}
		return parts[0] + "__" + parts[1], true
	case strings.HasPrefix(ref, "enrichment."):
		name := strings.TrimPrefix(ref, "enrichment.")
		return "enrichment__" + name, true
	default:
		return ref, true
	}
}

// outputAlias derives the default alias for a ref lacking an explicit one:
// the suffix after the last "__" in its resolved column name, matching the
// column-naming scheme in I4.
func outputAlias(column string) string {
	if i := strings.LastIndex(column, "__"); i >= 0 {
		return column[i+2:]
	}
	return column
}
