package domain

import "strings"

// Contact is one address-book entry a task may be assigned to.
type Contact struct {
	ID    string `json:"-"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Initials returns up to two upper-case initials of the contact name.
func (c Contact) Initials() string {
	parts := strings.Fields(c.Name)
	if len(parts) == 0 {
		return ""
	}
	out := []rune{}
	for _, part := range []string{parts[0], parts[len(parts)-1]} {
		r := []rune(part)
		out = append(out, r[0])
		if len(parts) == 1 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
