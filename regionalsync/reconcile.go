package regionalsync

import (
	"sort"
)

type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationRetire MutationKind = "retire"
)

// Mutation is one planned write. Create carries the new row's fields;
// Retire carries the id of the active row to flip inactive.
type Mutation struct {
	Kind         MutationKind
	RetireId     uint
	Name         string
	ExternalCode *int
}

// reconcile diffs the normalized feed against the active snapshot and
// returns the minimal ordered mutation list. It is pure: no I/O, no
// clock, fully deterministic for a given input.
//
// Matching is by external code when the record carries one, by exact
// name otherwise; a code-bearing record never falls back to a name
// match. A matched row with a changed name is replaced (retire then
// create, the create inheriting the record's code). Active rows the
// feed no longer mentions are retired last, in id order. Duplicate
// join keys within one feed are resolved first-occurrence-wins.
func reconcile(records []ExternalRecord, snap *snapshot) []Mutation {
	var mutations []Mutation

	seen := make(map[uint]bool)
	retired := make(map[uint]bool)
	createdByCode := make(map[int]bool)
	createdByName := make(map[string]bool)

	for _, record := range records {
		if record.ExternalCode != nil {
			code := *record.ExternalCode
			if createdByCode[code] {
				continue
			}

			match, ok := snap.byCode[code]
			if !ok {
				createdByCode[code] = true
				mutations = append(mutations, Mutation{
					Kind:         MutationCreate,
					Name:         record.Name,
					ExternalCode: record.ExternalCode,
				})
				continue
			}
			if seen[match.ID] || retired[match.ID] {
				continue
			}
			if match.Name == record.Name {
				seen[match.ID] = true
				continue
			}
			// Renamed upstream: replace the row, keep the code.
			retired[match.ID] = true
			createdByCode[code] = true
			mutations = append(mutations,
				Mutation{Kind: MutationRetire, RetireId: match.ID},
				Mutation{Kind: MutationCreate, Name: record.Name, ExternalCode: record.ExternalCode},
			)
			continue
		}

		if createdByName[record.Name] {
			continue
		}
		match, ok := snap.byName[record.Name]
		if !ok {
			createdByName[record.Name] = true
			mutations = append(mutations, Mutation{
				Kind: MutationCreate,
				Name: record.Name,
			})
			continue
		}
		if !retired[match.ID] {
			seen[match.ID] = true
		}
	}

	var unseen []uint
	for i := range snap.rows {
		id := snap.rows[i].ID
		if !seen[id] && !retired[id] {
			unseen = append(unseen, id)
		}
	}
	sort.Slice(unseen, func(i, j int) bool { return unseen[i] < unseen[j] })
	for _, id := range unseen {
		mutations = append(mutations, Mutation{Kind: MutationRetire, RetireId: id})
	}

	return mutations
}

// mutationCounts tallies a plan for run bookkeeping and logs.
func mutationCounts(mutations []Mutation) (created int, retired int) {
	for _, m := range mutations {
		switch m.Kind {
		case MutationCreate:
			created++
		case MutationRetire:
			retired++
		}
	}
	return created, retired
}
