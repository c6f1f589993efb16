package identity

import (
	"testing"

	"github.com/huangsam/gitpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(name, email string) schema.RawCommit {
	return schema.RawCommit{AuthorName: name, AuthorEmail: email}
}

// TestResolveMergesSharedEmail covers two names on one unregistered email.
func TestResolveMergesSharedEmail(t *testing.T) {
	commits := []schema.RawCommit{
		commit("Alice", "a@x.com"),
		commit("Alice A.", "a@x.com"),
		commit("Alice", "a@x.com"),
	}

	ids := Resolve(commits, nil)
	require.Len(t, ids, 1)
	assert.Equal(t, "email:a@x.com", ids[0].Key)
	assert.False(t, ids[0].IsRegistered)
	assert.Equal(t, []string{"Alice", "Alice A."}, ids[0].Names)
	assert.Equal(t, []string{"a@x.com"}, ids[0].Emails)
	assert.Equal(t, "Alice", ids[0].DisplayName)
}

// TestResolvePriorityOrder checks that email beats username beats display name.
func TestResolvePriorityOrder(t *testing.T) {
	users := []schema.RegisteredUser{
		{ID: 1, Username: "alice", DisplayName: "Alice Liddell", Email: "alice@corp.com"},
		{ID: 2, Username: "bob", DisplayName: "Robert Stone", Email: "bob@corp.com"},
		{ID: 3, Username: "carol", DisplayName: "Carol King", Email: "carol@corp.com"},
	}

	tests := []struct {
		name    string
		commit  schema.RawCommit
		wantKey string
		wantBy  schema.MatchKind
	}{
		{"email match wins over username", commit("bob", "ALICE@corp.com "), "user:1", schema.MatchEmail},
		{"username when email unknown", commit("B O B", "home@x.com"), "user:2", schema.MatchUsername},
		{"display name last", commit("carol king", ""), "user:3", schema.MatchDisplayName},
		{"no match falls back to email", commit("Zed", "Zed@X.com"), "email:zed@x.com", schema.MatchNone},
		{"no match and no email falls back to name", commit("Zed Q", ""), "name:zedq", schema.MatchNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := Resolve([]schema.RawCommit{tt.commit}, users)
			require.Len(t, ids, 1)
			assert.Equal(t, tt.wantKey, ids[0].Key)
			assert.Equal(t, tt.wantBy, ids[0].MatchedBy)
		})
	}
}

// TestResolveSkipsAnonymousPairs checks that empty pairs are dropped.
func TestResolveSkipsAnonymousPairs(t *testing.T) {
	ids := Resolve([]schema.RawCommit{commit("", ""), commit("  ", "")}, nil)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

// TestResolveGroupingInvariant checks that a shared normalized email always groups,
// even when one pair matched a user and the other did not.
func TestResolveGroupingInvariant(t *testing.T) {
	users := []schema.RegisteredUser{{ID: 7, Username: "jdoe", DisplayName: "Jane Doe"}}
	commits := []schema.RawCommit{
		commit("jdoe", "Jane@Home.org"),
		commit("J. D.", "jane@home.org"),
		commit("Someone", "other@x.com"),
	}

	ids := Resolve(commits, users)
	require.Len(t, ids, 2)

	byKey := map[string]schema.ContributorIdentity{}
	for _, id := range ids {
		byKey[id.Key] = id
	}
	jane, ok := byKey["user:7"]
	require.True(t, ok)
	assert.True(t, jane.IsRegistered)
	assert.Equal(t, "Jane Doe", jane.DisplayName)
	assert.ElementsMatch(t, []string{"jdoe", "J. D."}, jane.Names)
	assert.ElementsMatch(t, []string{"Jane@Home.org", "jane@home.org"}, jane.Emails)
	assert.Contains(t, byKey, "email:other@x.com")
}

// TestResolveClassPicksBestMatch checks the tie-break when two users land in one class.
func TestResolveClassPicksBestMatch(t *testing.T) {
	users := []schema.RegisteredUser{
		{ID: 9, Username: "bob"},
		{ID: 4, Username: "carol"},
		{ID: 5, Username: "dave", Email: "shared@x.com"},
	}

	t.Run("same rank picks lowest id", func(t *testing.T) {
		ids := Resolve([]schema.RawCommit{commit("bob", "team@x.com"), commit("carol", "team@x.com")}, users)
		require.Len(t, ids, 1)
		assert.Equal(t, "user:4", ids[0].Key)
	})

	t.Run("email rank beats username rank", func(t *testing.T) {
		ids := Resolve([]schema.RawCommit{commit("carol", "Shared@x.com"), commit("bob", "shared@x.com")}, users)
		require.Len(t, ids, 1)
		assert.Equal(t, "user:5", ids[0].Key)
		assert.Equal(t, schema.MatchEmail, ids[0].MatchedBy)
	})
}

// TestResolveDeterministic checks that repeated passes agree regardless of input order.
func TestResolveDeterministic(t *testing.T) {
	users := []schema.RegisteredUser{{ID: 1, Username: "alice", Email: "alice@corp.com"}}
	commits := []schema.RawCommit{
		commit("alice", "alice@home.com"),
		commit("Bob", "bob@x.com"),
		commit("Bob B", "bob@x.com"),
		commit("carol", ""),
		commit("Alice L", "alice@corp.com"),
	}
	reversed := make([]schema.RawCommit, len(commits))
	for i, c := range commits {
		reversed[len(commits)-1-i] = c
	}

	first := Resolve(commits, users)
	assert.Equal(t, first, Resolve(commits, users))
	assert.Equal(t, first, Resolve(reversed, users))
}

// TestResolveWithPolicy checks that an injected policy replaces the default.
func TestResolveWithPolicy(t *testing.T) {
	users := []schema.RegisteredUser{{ID: 1, Username: "alice", Email: "alice@corp.com"}}
	commits := []schema.RawCommit{commit("alice", "alice@home.com")}

	def := Resolve(commits, users)
	require.Len(t, def, 1)
	assert.Equal(t, "user:1", def[0].Key)

	strict := Resolve(commits, users, WithPolicy(EmailOnlyPolicy{}))
	require.Len(t, strict, 1)
	assert.Equal(t, "email:alice@home.com", strict[0].Key)
	assert.False(t, strict[0].IsRegistered)
}

// TestResolveSeesNewUsers checks that resolution is not memoized between calls.
func TestResolveSeesNewUsers(t *testing.T) {
	commits := []schema.RawCommit{commit("alice", "alice@x.com")}
	before := Resolve(commits, nil)
	after := Resolve(commits, []schema.RegisteredUser{{ID: 3, Username: "alice"}})
	assert.Equal(t, "email:alice@x.com", before[0].Key)
	assert.Equal(t, "user:3", after[0].Key)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alicesmith", NormalizeName("  Alice \tSmith "))
	assert.Equal(t, "a@x.com", NormalizeEmail(" A@X.com "))
	assert.Equal(t, "", NormalizeName("   "))
}
