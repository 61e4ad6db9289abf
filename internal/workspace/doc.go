// Package workspace manages ephemeral workspace directories used while
// extracting draft sources from git commits before rendering.
//
// Each build creates a timestamped directory (e.g. draftsite-20260831-122336)
// under the system temp dir, with one subdirectory per rendered ref. Cleanup
// removes the whole tree after the build.
package workspace
