package models

import "strings"

// certificationSeparator joins certification names for storage. Names containing
// the separator do not survive a round trip.
const certificationSeparator = ","

// JoinCertifications serializes a certification list for storage.
func JoinCertifications(certs []string) string {
	return strings.Join(certs, certificationSeparator)
}

// SplitCertifications parses a stored certification string back into a list.
// Surrounding whitespace is trimmed and empty entries are dropped, so the
// hand-typed "ISO 9001, ISO 14001" parses the same as the stored form.
func SplitCertifications(stored string) []string {
	certs := make([]string, 0)
	for _, part := range strings.Split(stored, certificationSeparator) {
		part = strings.TrimSpace(part)
		if part != "" {
			certs = append(certs, part)
		}
	}
	return certs
}
