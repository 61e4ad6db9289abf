package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDraft      = "draft"
	KeyRef        = "ref"
	KeyRefType    = "ref_type"
	KeyRefName    = "ref_name"
	KeyCommit     = "commit"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Draft(d string) slog.Attr        { return slog.String(KeyDraft, d) }
func Ref(path string) slog.Attr       { return slog.String(KeyRef, path) }
func RefType(t string) slog.Attr      { return slog.String(KeyRefType, t) }
func RefName(n string) slog.Attr      { return slog.String(KeyRefName, n) }
func Commit(sha string) slog.Attr     { return slog.String(KeyCommit, sha) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
