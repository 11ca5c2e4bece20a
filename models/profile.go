package models

import (
	"strings"
	"time"
)

// ProfileRecord is the canonical admin/student profile.
type ProfileRecord struct {
	ID            *int64         `json:"id"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Address       string         `json:"address"`
	Role          string         `json:"role"`
	Position      *string        `json:"position"`
	StudentNumber *string        `json:"studentNumber"`
	JoiningDate   *time.Time     `json:"joiningDate"`
	Birthday      *time.Time     `json:"birthday"`
	CreatedAt     *time.Time     `json:"createdAt"`
	UpdatedAt     *time.Time     `json:"updatedAt"`
	Raw           map[string]any `json:"raw"`
}

func (p ProfileRecord) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Initials falls back to "N/A" when both names are blank.
func (p ProfileRecord) Initials() string {
	var b strings.Builder
	for _, s := range []string{p.FirstName, p.LastName} {
		if r := []rune(strings.TrimSpace(s)); len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	if b.Len() == 0 {
		return "N/A"
	}
	return strings.ToUpper(b.String())
}
