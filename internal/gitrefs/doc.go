// Package gitrefs discovers branch and tag references in a local git
// repository and extracts draft sources from the commits they point at.
//
// Selection follows first-match-wins precedence: local branches and tags are
// collected first, then remote-tracking branches per configured remote in
// order. A remote branch never displaces a local branch of the same name,
// and an earlier remote wins over a later one.
package gitrefs
