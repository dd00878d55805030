package service

import (
	"regexp"
	"strings"

	"github.com/grievance_desk/backend/internal/utils"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Normalize lowercases s, strips non-alphanumerics and collapses runs of
// whitespace into a single underscore separator.
func Normalize(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), "_")
}

// IssueKey is the grouping key for an issue. One issue exists per key.
func IssueKey(location, category string) string {
	return Normalize(location) + "::" + Normalize(category)
}

// IssueID derives a stable public id from the raw (location, category) pair.
// Two independent creators computing the same key compute the same id, which
// makes creation under a unique constraint idempotent.
func IssueID(location, category string) string {
	digest := utils.ShortHash(location + "-" + category)
	return "ISSUE-" + Normalize(location) + "-" + Normalize(category) + "-" + digest
}
