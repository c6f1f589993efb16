package identity

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/gitpulse/schema"
)

// Key prefixes keep the key spaces of users, emails and names disjoint.
const (
	UserKeyPrefix  = "user:"
	EmailKeyPrefix = "email:"
	NameKeyPrefix  = "name:"
)

// Pair is a distinct (author name, author email) combination.
type Pair struct {
	Name  string
	Email string
}

// PairCount is a pair with the number of commits that carried it.
type PairCount struct {
	Pair
	Commits int
}

// PairCounter collects distinct author pairs in first-seen order.
type PairCounter struct {
	index map[Pair]int
	pairs []PairCount
}

// NewPairCounter returns an empty counter.
func NewPairCounter() *PairCounter {
	return &PairCounter{index: make(map[Pair]int)}
}

// Add records the author pair of a commit.
func (pc *PairCounter) Add(c schema.RawCommit) {
	p := Pair{Name: c.AuthorName, Email: c.AuthorEmail}
	if i, ok := pc.index[p]; ok {
		pc.pairs[i].Commits++
		return
	}
	pc.index[p] = len(pc.pairs)
	pc.pairs = append(pc.pairs, PairCount{Pair: p, Commits: 1})
}

// Pairs returns the collected pairs.
func (pc *PairCounter) Pairs() []PairCount {
	return pc.pairs
}

type resolver struct {
	policy MatchPolicy
}

// Option customizes a resolution pass.
type Option func(*resolver)

// WithPolicy replaces the default priority policy.
func WithPolicy(p MatchPolicy) Option {
	return func(r *resolver) {
		if p != nil {
			r.policy = p
		}
	}
}

// Resolve groups the author pairs of the commits into identities.
// The result is sorted by key and depends only on its inputs.
func Resolve(commits []schema.RawCommit, users []schema.RegisteredUser, opts ...Option) []schema.ContributorIdentity {
	pc := NewPairCounter()
	for _, c := range commits {
		pc.Add(c)
	}
	return ResolvePairs(pc.Pairs(), users, opts...)
}

// ResolvePairs groups author pairs into identities.
// Pairs sharing a canonical key or a normalized email end up in the same identity.
func ResolvePairs(pairs []PairCount, users []schema.RegisteredUser, opts ...Option) []schema.ContributorIdentity {
	r := &resolver{policy: PriorityPolicy{}}
	for _, opt := range opts {
		opt(r)
	}

	valid := make([]PairCount, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Email) == "" {
			continue // unidentifiable
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return []schema.ContributorIdentity{}
	}

	dir := NewDirectory(users)
	uf := newUnionFind(len(valid))
	matches := make([]*Match, len(valid))
	keys := make([]string, len(valid))
	firstByKey := make(map[string]int)
	firstByEmail := make(map[string]int)

	for i, p := range valid {
		if m, ok := r.policy.Match(dir, p.Name, p.Email); ok {
			matches[i] = &m
		}
		keys[i] = canonicalKey(p.Pair, matches[i])

		if j, ok := firstByKey[keys[i]]; ok {
			uf.union(i, j)
		} else {
			firstByKey[keys[i]] = i
		}
		if email := NormalizeEmail(p.Email); email != "" {
			if j, ok := firstByEmail[email]; ok {
				uf.union(i, j)
			} else {
				firstByEmail[email] = i
			}
		}
	}

	groups := make(map[int][]int)
	for i := range valid {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	identities := make([]schema.ContributorIdentity, 0, len(groups))
	for _, members := range groups {
		identities = append(identities, buildIdentity(valid, matches, keys, members))
	}
	slices.SortFunc(identities, func(a, b schema.ContributorIdentity) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return identities
}

// canonicalKey is the user id when matched, else the normalized email, else the normalized name.
func canonicalKey(p Pair, m *Match) string {
	if m != nil {
		return UserKeyPrefix + strconv.FormatInt(m.User.ID, 10)
	}
	if email := NormalizeEmail(p.Email); email != "" {
		return EmailKeyPrefix + email
	}
	return NameKeyPrefix + NormalizeName(p.Name)
}

// bestMatch picks the highest priority match of a class, then the lowest user id.
func bestMatch(matches []*Match, members []int) *Match {
	var best *Match
	for _, i := range members {
		m := matches[i]
		if m == nil {
			continue
		}
		if best == nil {
			best = m
			continue
		}
		rm, rb := schema.MatchRank(m.Kind), schema.MatchRank(best.Kind)
		if rm < rb || (rm == rb && m.User.ID < best.User.ID) {
			best = m
		}
	}
	return best
}

func buildIdentity(pairs []PairCount, matches []*Match, keys []string, members []int) schema.ContributorIdentity {
	names := make(map[string]int)
	emails := make(map[string]struct{})
	key := ""
	for _, i := range members {
		p := pairs[i]
		if p.Name != "" {
			names[p.Name] += p.Commits
		}
		if p.Email != "" {
			emails[p.Email] = struct{}{}
		}
		if key == "" || keys[i] < key {
			key = keys[i]
		}
	}

	id := schema.ContributorIdentity{
		Names:  sortedKeys(names),
		Emails: sortedKeys(emails),
	}

	if m := bestMatch(matches, members); m != nil {
		id.Key = UserKeyPrefix + strconv.FormatInt(m.User.ID, 10)
		id.IsRegistered = true
		id.UserID = m.User.ID
		id.Username = m.User.Username
		id.AvatarURL = m.User.AvatarURL
		id.MatchedBy = m.Kind
		id.DisplayName = cmp.Or(m.User.DisplayName, m.User.Username)
		return id
	}

	id.Key = key
	id.DisplayName = dominantName(names)
	if id.DisplayName == "" && len(id.Emails) > 0 {
		id.DisplayName = id.Emails[0]
	}
	return id
}

// dominantName returns the name seen on the most commits, ties broken alphabetically.
func dominantName(names map[string]int) string {
	best, bestCount := "", -1
	for n, c := range names {
		if c > bestCount || (c == bestCount && n < best) {
			best, bestCount = n, c
		}
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// unionFind is a disjoint-set forest with path compression.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
