package shared

import "strings"

// Directory resolves sign-in emails to the display names used as the submitter value and as rating column headers.
type Directory struct {
	names map[string]string
}

// NewDirectory creates a [Directory] from a static email → display name table.
//
// Emails are matched case-insensitively with surrounding space ignored, since Google reports the address as the
// account was created while the table is typed by hand.
func NewDirectory(names map[string]string) *Directory {
	copied := make(map[string]string, len(names))
	for email, name := range names {
		copied[strings.ToLower(strings.TrimSpace(email))] = name
	}
	return &Directory{names: copied}
}

// DisplayName returns the configured name for email, or the local part of the email when no entry exists.
func (d *Directory) DisplayName(email string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	if d != nil {
		if name, ok := d.names[key]; ok && name != "" {
			return name
		}
	}

	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}
