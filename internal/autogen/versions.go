package autogen

import (
	"sort"

	"github.com/draftsite/draftsite/internal/gitrefs"
)

// byDraft groups versions per draft.
func byDraft(versions []AutoVersion) map[string][]AutoVersion {
	grouped := make(map[string][]AutoVersion)
	for _, v := range versions {
		grouped[v.Draft] = append(grouped[v.Draft], v)
	}
	return grouped
}

// byRefType splits one draft's versions by ref type, each group sorted by
// ref name.
func byRefType(versions []AutoVersion) map[gitrefs.RefType][]AutoVersion {
	grouped := make(map[gitrefs.RefType][]AutoVersion)
	for _, v := range versions {
		grouped[v.Ref.Type] = append(grouped[v.Ref.Type], v)
	}
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool { return group[i].Ref.Name < group[j].Ref.Name })
	}
	return grouped
}

// newestFirst returns versions ordered by commit time, newest first. Ties
// fall back to ref name so the order is stable.
func newestFirst(versions []AutoVersion) []AutoVersion {
	ordered := make([]AutoVersion, len(versions))
	copy(ordered, versions)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Ref.CommittedAt.Equal(b.Ref.CommittedAt) {
			return a.Ref.CommittedAt.After(b.Ref.CommittedAt)
		}
		return a.Ref.Name < b.Ref.Name
	})
	return ordered
}

// diffPair is a rendered version and one of its predecessors.
type diffPair struct {
	From AutoVersion
	To   AutoVersion
}

// diffPairs pairs each version of one draft with every strictly older
// version, newest first. Versions sharing a commit time never pair up.
func diffPairs(versions []AutoVersion) []diffPair {
	ordered := newestFirst(versions)
	var pairs []diffPair
	for i, v := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Ref.CommittedAt.Before(v.Ref.CommittedAt) {
				pairs = append(pairs, diffPair{From: ordered[j], To: v})
			}
		}
	}
	return pairs
}
