// Package scopes handles space-delimited scope strings and the
// human-readable descriptions shown during consent.
package scopes

import (
	"slices"
	"strings"
)

// Well known IndieAuth scopes.
const (
	Profile       = "profile"
	Email         = "email"
	OfflineAccess = "offline_access"
)

// Set is an ordered, duplicate free list of scope names.
type Set []string

// Parse splits a space-delimited scope string. Empty input yields an empty Set.
func Parse(scope string) Set {
	return FromSlice(strings.Fields(scope))
}

// FromSlice builds a Set from individual names, dropping blanks and duplicates.
func FromSlice(names []string) Set {
	set := make(Set, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(set, name) {
			continue
		}
		set = append(set, name)
	}
	return set
}

// String joins the set back into its wire form.
func (s Set) String() string {
	return strings.Join(s, " ")
}

func (s Set) Contains(name string) bool {
	return slices.Contains(s, name)
}

func (s Set) Empty() bool {
	return len(s) == 0
}

// IsSubsetOf reports whether every scope in s is also in other.
func (s Set) IsSubsetOf(other Set) bool {
	for _, name := range s {
		if !other.Contains(name) {
			return false
		}
	}
	return true
}

// Narrow keeps the scopes of s that were also selected, preserving the
// order of s. Selections outside s are ignored so a grant can never widen.
func (s Set) Narrow(selected Set) Set {
	narrowed := make(Set, 0, len(s))
	for _, name := range s {
		if selected.Contains(name) {
			narrowed = append(narrowed, name)
		}
	}
	return narrowed
}

// Descriptions maps scope names to consent text. It is built once at start
// up and never mutated.
type Descriptions struct {
	text map[string]string
}

// Described is a scope paired with its consent text.
type Described struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultDescriptions returns the built-in consent text.
func DefaultDescriptions() map[string]string {
	return map[string]string{
		Profile:       "View basic profile information",
		Email:         "View your email address",
		OfflineAccess: "Keep you logged in permanently (until revoked)",
	}
}

// NewDescriptions copies text into an immutable Descriptions value.
func NewDescriptions(text map[string]string) Descriptions {
	copied := make(map[string]string, len(text))
	for name, description := range text {
		copied[name] = description
	}
	return Descriptions{text: copied}
}

// Describe returns the consent text for name, or name itself when unknown.
func (d Descriptions) Describe(name string) string {
	if description, ok := d.text[name]; ok && description != "" {
		return description
	}
	return name
}

// DescribeAll describes every scope in set.
func (d Descriptions) DescribeAll(set Set) []Described {
	described := make([]Described, 0, len(set))
	for _, name := range set {
		described = append(described, Described{Name: name, Description: d.Describe(name)})
	}
	return described
}
