// Package schema has the record, result and configuration types shared across gitpulse.
package schema

// ContributorIdentity is a canonical grouping of git author pairs,
// optionally linked to a registered user.
type ContributorIdentity struct {
	Key          string    `json:"key"`
	IsRegistered bool      `json:"is_registered"`
	UserID       int64     `json:"user_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	MatchedBy    MatchKind `json:"matched_by,omitempty"`
	Names        []string  `json:"git_names"`
	Emails       []string  `json:"git_emails"`
}

// ContributionCounts are the summed activity of one identity over a scope and window.
type ContributionCounts struct {
	Commits         int `json:"commits"`
	Additions       int `json:"additions"`
	Deletions       int `json:"deletions"`
	FilesChanged    int `json:"files_changed"`
	PRsCreated      int `json:"prs_created"`
	PRsMerged       int `json:"prs_merged"`
	ReviewsGiven    int `json:"reviews_given"`
	ReviewsApproved int `json:"reviews_approved"`
}

// Add returns the field-wise sum of two counts.
func (c ContributionCounts) Add(o ContributionCounts) ContributionCounts {
	return ContributionCounts{
		Commits:         c.Commits + o.Commits,
		Additions:       c.Additions + o.Additions,
		Deletions:       c.Deletions + o.Deletions,
		FilesChanged:    c.FilesChanged + o.FilesChanged,
		PRsCreated:      c.PRsCreated + o.PRsCreated,
		PRsMerged:       c.PRsMerged + o.PRsMerged,
		ReviewsGiven:    c.ReviewsGiven + o.ReviewsGiven,
		ReviewsApproved: c.ReviewsApproved + o.ReviewsApproved,
	}
}

// LinesChanged returns additions plus deletions.
func (c ContributionCounts) LinesChanged() int {
	return c.Additions + c.Deletions
}

// IsZero reports whether no activity was counted.
func (c ContributionCounts) IsZero() bool {
	return c == ContributionCounts{}
}

// ContributionRow pairs an identity with its counts for output.
type ContributionRow struct {
	Identity ContributorIdentity `json:"identity"`
	Counts   ContributionCounts  `json:"counts"`
}
