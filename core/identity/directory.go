// Package identity resolves raw git author pairs into contributor identities.
package identity

import (
	"strings"
	"unicode"

	"github.com/huangsam/gitpulse/schema"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName lowercases a name and removes all whitespace.
func NormalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// Directory is a case-insensitive view over the registered users.
// The first user wins when two users share a lookup key.
type Directory struct {
	users      []schema.RegisteredUser
	byEmail    map[string]int
	byUsername map[string]int
	byDisplay  map[string]int
}

// NewDirectory builds the lookup tables for the given users.
func NewDirectory(users []schema.RegisteredUser) *Directory {
	d := &Directory{
		users:      users,
		byEmail:    make(map[string]int, len(users)),
		byUsername: make(map[string]int, len(users)),
		byDisplay:  make(map[string]int, len(users)),
	}
	for i, u := range users {
		addFirst(d.byEmail, NormalizeEmail(u.Email), i)
		addFirst(d.byUsername, NormalizeName(u.Username), i)
		addFirst(d.byDisplay, NormalizeName(u.DisplayName), i)
	}
	return d
}

func addFirst(m map[string]int, key string, idx int) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = idx
	}
}

// Len returns the number of registered users.
func (d *Directory) Len() int {
	return len(d.users)
}

// ByEmail looks up a user by email.
func (d *Directory) ByEmail(email string) (schema.RegisteredUser, bool) {
	return d.lookup(d.byEmail, NormalizeEmail(email))
}

// ByUsername looks up a user by normalized username.
func (d *Directory) ByUsername(name string) (schema.RegisteredUser, bool) {
	return d.lookup(d.byUsername, NormalizeName(name))
}

// ByDisplayName looks up a user by normalized display name.
func (d *Directory) ByDisplayName(name string) (schema.RegisteredUser, bool) {
	return d.lookup(d.byDisplay, NormalizeName(name))
}

func (d *Directory) lookup(m map[string]int, key string) (schema.RegisteredUser, bool) {
	if key == "" {
		return schema.RegisteredUser{}, false
	}
	idx, ok := m[key]
	if !ok {
		return schema.RegisteredUser{}, false
	}
	return d.users[idx], true
}
