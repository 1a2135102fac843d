// Package cable holds the normalization rules that give cable stock records a
// stable identity. Cables are tracked by the pair of connector ends (stored in
// the make field) and length (stored in the model field) rather than by a
// service tag.
package cable

import "strings"

// ServiceTagNA is the service tag every cable row carries.
const ServiceTagNA = "N/A"

// CanonicalCategory is the category name reconciled cable rows are stored under.
const CanonicalCategory = "Cables"

// DuplicateMessage is returned to callers when a cable signature is taken.
const DuplicateMessage = "a cable with the same ends and length already exists; " +
	"each cable ends+length combination must be unique"

// Signature is the case-insensitive identity of a cable type.
type Signature struct {
	Ends   string
	Length string
}

// IsCategory reports whether category names the cable variant.
func IsCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	return c == "cable" || c == "cables"
}

// NormalizeLength canonicalizes a length such as "10FT" or "10" to "10 ft".
// Blank input stays blank.
func NormalizeLength(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.HasSuffix(lower, " ft"):
		raw = strings.TrimSpace(raw[:len(raw)-3])
	case strings.HasSuffix(lower, "ft"):
		raw = strings.TrimSpace(raw[:len(raw)-2])
	}
	return raw + " ft"
}

// NormalizeEnds orders the connector ends of s so that "HDMI-USB-C" and
// "USB-C-HDMI" compare equal. The dash-separated parts are treated as a ring
// and the rotation that sorts first (case-insensitively) wins; for the common
// two-part form this is plain sorting of the two ends. With three or more
// parts the stored form may start mid-name: both inputs above become
// "C-HDMI-USB". Free-form values with an empty part are returned trimmed.
func NormalizeEnds(s string) string {
	raw := strings.TrimSpace(s)
	parts := strings.Split(raw, "-")
	if len(parts) < 2 {
		return raw
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return raw
		}
	}

	best := strings.Join(parts, "-")
	for i := 1; i < len(parts); i++ {
		rotated := make([]string, 0, len(parts))
		rotated = append(rotated, parts[i:]...)
		rotated = append(rotated, parts[:i]...)
		if candidate := strings.Join(rotated, "-"); lessFold(candidate, best) {
			best = candidate
		}
	}
	return best
}

// lessFold compares case-insensitively and falls back to a byte comparison so
// the order is total.
func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// SignatureOf returns the identity of a cable whose make holds the ends and
// whose model holds the length.
func SignatureOf(ends, length string) Signature {
	return Signature{
		Ends:   strings.ToLower(NormalizeEnds(ends)),
		Length: strings.ToLower(NormalizeLength(length)),
	}
}

// TitleCase collapses whitespace and capitalizes the first letter of every
// word, lower-casing the rest: "  dell   LAPTOP " becomes "Dell Laptop".
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}
