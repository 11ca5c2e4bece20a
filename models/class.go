package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClassRecord is the canonical class shape used for price lookup and labels.
type ClassRecord struct {
	ID       int64            `json:"id"`
	Name     *string          `json:"name"`
	Grade    *string          `json:"grade"`
	Fee      *decimal.Decimal `json:"fee"`
	Subjects []string         `json:"subjects,omitempty"`
	Raw      map[string]any   `json:"raw"`
}

// Label is the select-option text: grade, then name, with "Class <id>" standing
// in for a missing name.
func (c ClassRecord) Label() string {
	name := fmt.Sprintf("Class %d", c.ID)
	if c.Name != nil {
		name = *c.Name
	}
	if c.Grade != nil {
		return *c.Grade + " — " + name
	}
	return name
}
