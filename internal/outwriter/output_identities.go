package outwriter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/gitpulse/internal/contract"
	"github.com/huangsam/gitpulse/schema"
)

// WriteIdentities outputs resolved contributor identities in the configured format.
func WriteIdentities(ids []schema.ContributorIdentity, cfg *contract.Config, duration time.Duration) error {
	return dispatch(cfg, "identities", renderers{
		json: func(w io.Writer) error { return writeJSON(w, ids) },
		csv:  func(w io.Writer) error { return writeIdentitiesCSV(w, ids) },
		text: func(w io.Writer) error { return writeIdentitiesTable(w, ids, cfg, duration) },
	})
}

func writeIdentitiesTable(w io.Writer, ids []schema.ContributorIdentity, cfg *contract.Config, duration time.Duration) error {
	nameWidth := getMaxTableTextWidth(cfg, 60)
	data := make([][]string, 0, len(ids))
	for _, id := range ids {
		data = append(data, []string{
			truncateText(identityName(id), nameWidth),
			id.Key,
			yesNo(id.IsRegistered),
			string(id.MatchedBy),
			schema.FormatNames(id.Names, 2),
			strings.Join(id.Emails, ", "),
		})
	}
	if err := renderTable(w, []string{"Contributor", "Key", "Registered", "Matched By", "Git Names", "Git Emails"}, data); err != nil {
		return err
	}
	return writeFooter(w, cfg, "identities", len(ids), duration)
}

func writeIdentitiesCSV(w io.Writer, ids []schema.ContributorIdentity) error {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{
			id.Key,
			identityName(id),
			fmt.Sprintf("%t", id.IsRegistered),
			fmt.Sprintf("%d", id.UserID),
			id.Username,
			string(id.MatchedBy),
			strings.Join(id.Names, "|"),
			strings.Join(id.Emails, "|"),
		})
	}
	return writeCSVRows(w, []string{"key", "name", "registered", "user_id", "username", "matched_by", "git_names", "git_emails"}, rows)
}

// WriteContributions outputs per-identity contribution counts in the configured format.
func WriteContributions(rows []schema.ContributionRow, cfg *contract.Config, duration time.Duration) error {
	return dispatch(cfg, "contributions", renderers{
		json: func(w io.Writer) error { return writeJSON(w, rows) },
		csv:  func(w io.Writer) error { return writeContributionsCSV(w, rows) },
		text: func(w io.Writer) error { return writeContributionsTable(w, rows, cfg, duration) },
	})
}

func contributionCells(c schema.ContributionCounts) []string {
	return []string{
		itoa(c.Commits),
		itoa(c.Additions),
		itoa(c.Deletions),
		itoa(c.FilesChanged),
		itoa(c.PRsCreated),
		itoa(c.PRsMerged),
		itoa(c.ReviewsGiven),
		itoa(c.ReviewsApproved),
	}
}

func writeContributionsTable(w io.Writer, rows []schema.ContributionRow, cfg *contract.Config, duration time.Duration) error {
	nameWidth := getMaxTableTextWidth(cfg, 80)
	data := make([][]string, 0, len(rows))
	var total schema.ContributionCounts
	for _, r := range rows {
		total = total.Add(r.Counts)
		data = append(data, append([]string{truncateText(identityName(r.Identity), nameWidth)}, contributionCells(r.Counts)...))
	}
	headers := []string{"Contributor", "Commits", "Added", "Deleted", "Files", "PRs", "Merged", "Reviews", "Approved"}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Totals: %d commits, %d lines changed, %d PRs merged, %d reviews\n",
		total.Commits, total.LinesChanged(), total.PRsMerged, total.ReviewsGiven); err != nil {
		return err
	}
	return writeFooter(w, cfg, "contributors", len(rows), duration)
}

func writeContributionsCSV(w io.Writer, rows []schema.ContributionRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, append([]string{r.Identity.Key, identityName(r.Identity)}, contributionCells(r.Counts)...))
	}
	header := []string{"key", "name", "commits", "additions", "deletions", "files_changed",
		"prs_created", "prs_merged", "reviews_given", "reviews_approved"}
	return writeCSVRows(w, header, out)
}

// WriteUsers outputs the registered-user directory in the configured format.
func WriteUsers(users []schema.RegisteredUser, cfg *contract.Config, duration time.Duration) error {
	return dispatch(cfg, "users", renderers{
		json: func(w io.Writer) error { return writeJSON(w, users) },
		csv:  func(w io.Writer) error { return writeUsersCSV(w, users) },
		text: func(w io.Writer) error { return writeUsersTable(w, users, cfg, duration) },
	})
}

func userCells(u schema.RegisteredUser) []string {
	return []string{fmt.Sprintf("%d", u.ID), u.Username, u.DisplayName, u.Email}
}

func writeUsersTable(w io.Writer, users []schema.RegisteredUser, cfg *contract.Config, duration time.Duration) error {
	data := make([][]string, 0, len(users))
	for _, u := range users {
		data = append(data, userCells(u))
	}
	if err := renderTable(w, []string{"ID", "Username", "Display Name", "Email"}, data); err != nil {
		return err
	}
	return writeFooter(w, cfg, "users", len(users), duration)
}

func writeUsersCSV(w io.Writer, users []schema.RegisteredUser) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, append(userCells(u), u.AvatarURL))
	}
	return writeCSVRows(w, []string{"id", "username", "display_name", "email", "avatar_url"}, rows)
}
