package identity

import "github.com/huangsam/gitpulse/schema"

// Match links an author pair to a registered user.
type Match struct {
	User schema.RegisteredUser
	Kind schema.MatchKind
}

// MatchPolicy decides which registered user, if any, an author pair belongs to.
type MatchPolicy interface {
	Match(dir *Directory, name, email string) (Match, bool)
}

// PriorityPolicy tries email, then username, then display name. First match wins.
type PriorityPolicy struct{}

var _ MatchPolicy = PriorityPolicy{} // Compile-time check

// Match implements the MatchPolicy interface.
func (PriorityPolicy) Match(dir *Directory, name, email string) (Match, bool) {
	if dir == nil {
		return Match{}, false
	}
	if u, ok := dir.ByEmail(email); ok {
		return Match{User: u, Kind: schema.MatchEmail}, true
	}
	if u, ok := dir.ByUsername(name); ok {
		return Match{User: u, Kind: schema.MatchUsername}, true
	}
	if u, ok := dir.ByDisplayName(name); ok {
		return Match{User: u, Kind: schema.MatchDisplayName}, true
	}
	return Match{}, false
}

// EmailOnlyPolicy links pairs to users by email alone.
type EmailOnlyPolicy struct{}

var _ MatchPolicy = EmailOnlyPolicy{} // Compile-time check

// Match implements the MatchPolicy interface.
func (EmailOnlyPolicy) Match(dir *Directory, _, email string) (Match, bool) {
	if dir == nil {
		return Match{}, false
	}
	if u, ok := dir.ByEmail(email); ok {
		return Match{User: u, Kind: schema.MatchEmail}, true
	}
	return Match{}, false
}
