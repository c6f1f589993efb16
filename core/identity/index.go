package identity

import (
	"slices"

	"github.com/huangsam/gitpulse/schema"
)

// Index answers which identities own a commit or a platform login.
// Matching uses the raw observed strings, exactly as they appear in records.
type Index struct {
	identities []schema.ContributorIdentity
	byEmail    map[string][]int
	byName     map[string][]int
	byLogin    map[string][]int
}

// NewIndex builds the lookup tables for resolved identities.
func NewIndex(identities []schema.ContributorIdentity) *Index {
	ix := &Index{
		identities: identities,
		byEmail:    make(map[string][]int),
		byName:     make(map[string][]int),
		byLogin:    make(map[string][]int),
	}
	for i, id := range identities {
		for _, e := range id.Emails {
			if e != "" {
				ix.byEmail[e] = append(ix.byEmail[e], i)
			}
		}
		for _, n := range id.Names {
			if n != "" {
				ix.byName[n] = append(ix.byName[n], i)
			}
		}
		if !id.IsRegistered {
			continue // external identities never own PRs or reviews
		}
		logins := append([]string{id.Username}, id.Names...)
		for _, l := range logins {
			if l != "" && !slices.Contains(ix.byLogin[l], i) {
				ix.byLogin[l] = append(ix.byLogin[l], i)
			}
		}
	}
	return ix
}

// Identities returns the indexed identities.
func (ix *Index) Identities() []schema.ContributorIdentity {
	return ix.identities
}

// Len returns the number of indexed identities.
func (ix *Index) Len() int {
	return len(ix.identities)
}

// CommitOwners returns the identities whose emails contain the commit email
// or whose names contain the commit name. Each identity appears once.
func (ix *Index) CommitOwners(c schema.RawCommit) []int {
	var owners []int
	if c.AuthorEmail != "" {
		owners = append(owners, ix.byEmail[c.AuthorEmail]...)
	}
	if c.AuthorName != "" {
		for _, i := range ix.byName[c.AuthorName] {
			if !slices.Contains(owners, i) {
				owners = append(owners, i)
			}
		}
	}
	return owners
}

// LoginOwners returns the registered identities that use the login.
func (ix *Index) LoginOwners(login string) []int {
	if login == "" {
		return nil
	}
	return ix.byLogin[login]
}
