package lesson

import (
	"errors"
	"fmt"
	"strings"
)

// Role is one of the four fixed perspectives every cycle is rendered from.
type Role int

const (
	RoleExpertEngineer Role = iota
	RoleSystemDesigner
	RoleLeader
	RoleReviewSynthesis
)

// ErrUnknownRole is returned by ParseRole when neither a role key nor a
// display name matches.
var ErrUnknownRole = errors.New("unknown role")

// Roles returns the fixed rotation in generation order.
func Roles() []Role {
	return []Role{RoleExpertEngineer, RoleSystemDesigner, RoleLeader, RoleReviewSynthesis}
}

// Key returns the programmatic key used by content tables ("expertEngineer").
func (r Role) Key() string {
	switch r {
	case RoleExpertEngineer:
		return "expertEngineer"
	case RoleSystemDesigner:
		return "systemDesigner"
	case RoleLeader:
		return "leader"
	case RoleReviewSynthesis:
		return "reviewSynthesis"
	}
	return ""
}

// DisplayName returns the human readable stage name ("Expert Engineer").
func (r Role) DisplayName() string {
	switch r {
	case RoleExpertEngineer:
		return "Expert Engineer"
	case RoleSystemDesigner:
		return "System Designer"
	case RoleLeader:
		return "Leader"
	case RoleReviewSynthesis:
		return "Review & Synthesis"
	}
	return ""
}

func (r Role) String() string {
	return r.DisplayName()
}

// Valid reports whether r is one of the four fixed roles.
func (r Role) Valid() bool {
	return r >= RoleExpertEngineer && r <= RoleReviewSynthesis
}

// Categories is the allow-list of concept categories relevant to the role.
func (r Role) Categories() []ConceptCategory {
	switch r {
	case RoleExpertEngineer:
		return []ConceptCategory{CategoryStructural, CategoryFoundational}
	case RoleSystemDesigner:
		return []ConceptCategory{CategoryQualitative, CategoryStructural, CategoryFoundational}
	case RoleLeader:
		return []ConceptCategory{CategoryQualitative, CategoryFoundational}
	case RoleReviewSynthesis:
		return []ConceptCategory{CategoryQualitative, CategoryStructural, CategoryFoundational}
	}
	return nil
}

// ParseRole resolves a role key, display name or a loose spelling of either
// ("expert-engineer", "review and synthesis").
func ParseRole(s string) (Role, error) {
	needle := normalizeRole(s)
	for _, r := range Roles() {
		if needle == normalizeRole(r.Key()) || needle == normalizeRole(r.DisplayName()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func normalizeRole(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
