package domain

// =============================================================================
// Slug Generation
// =============================================================================

// Slugify converts an operator-supplied deployment ID to a filesystem-safe
// slug used when naming its config file.
//
// The transformation rules are:
//   - Lowercase letters (a-z) are kept as-is
//   - Digits (0-9) are kept as-is
//   - Hyphens (-) and underscores (_) are kept as-is
//   - Uppercase letters (A-Z) are converted to lowercase
//   - Spaces are converted to hyphens
//   - All other characters are removed
//
// This is a pure function with no side effects.
//
// Example:
//
//	Slugify("Staging Chat")        // returns "staging-chat"
//	Slugify("20260830-154212")     // returns "20260830-154212"
//	Slugify("../etc/passwd")       // returns "etcpasswd"
func Slugify(id string) string {
	slug := ""
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			slug += string(r)
		} else if r >= 'A' && r <= 'Z' {
			slug += string(r + 32) // convert to lowercase
		} else if r == ' ' {
			slug += "-"
		}
		// All other characters are dropped
	}
	return slug
}
