package changedetect

import (
	"vplan-backend/lib/scrapers/untis"
)

// Persisted is a stored record alongside the hash it was stored with.
type Persisted struct {
	Record untis.SubstitutionRecord
	Hash   ContentHash
}

// Update is a fresh record replacing a persisted one with the same key.
type Update struct {
	Previous Persisted
	Record   untis.SubstitutionRecord
	Hash     ContentHash
}

type Insert struct {
	Record untis.SubstitutionRecord
	Hash   ContentHash
}

// Delta is the outcome of diffing one day of fresh records against the
// persisted state of that day.
type Delta struct {
	New       []Insert
	Changed   []Update
	Unchanged []Persisted
	Removed   []Persisted
}

func (d Delta) Empty() bool {
	return len(d.New) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Notify returns the records that should be announced (new and changed).
func (d Delta) Notify() []untis.SubstitutionRecord {
	out := make([]untis.SubstitutionRecord, 0, len(d.New)+len(d.Changed))
	for _, n := range d.New {
		out = append(out, n.Record)
	}
	for _, c := range d.Changed {
		out = append(out, c.Record)
	}
	return out
}

// Merge appends other's entries onto d.
func (d *Delta) Merge(other Delta) {
	d.New = append(d.New, other.New...)
	d.Changed = append(d.Changed, other.Changed...)
	d.Unchanged = append(d.Unchanged, other.Unchanged...)
	d.Removed = append(d.Removed, other.Removed...)
}

// Diff matches fresh records against persisted ones in two steps: key
// lookup on (date, class, lesson, original teacher) then hash comparison.
// Several records may share a key so both sides are treated as multisets,
// exact hash matches are paired first.
func Diff(fresh []untis.SubstitutionRecord, persisted []Persisted) Delta {
	byKey := map[untis.Key][]int{}
	for i, p := range persisted {
		key := p.Record.Key()
		byKey[key] = append(byKey[key], i)
	}
	used := make([]bool, len(persisted))

	hashes := make([]ContentHash, len(fresh))
	matched := make([]bool, len(fresh))
	var delta Delta

	// pass 1: identical content
	for i, r := range fresh {
		hashes[i] = Hash(r)
		for _, pi := range byKey[r.Key()] {
			if used[pi] || persisted[pi].Hash != hashes[i] {
				continue
			}
			used[pi] = true
			matched[i] = true
			delta.Unchanged = append(delta.Unchanged, persisted[pi])
			break
		}
	}

	// pass 2: same key, different content
	for i, r := range fresh {
		if matched[i] {
			continue
		}
		replaced := false
		for _, pi := range byKey[r.Key()] {
			if used[pi] {
				continue
			}
			result := Compare(r, persisted[pi].Hash)
			if result.Match == Unchanged {
				continue
			}
			used[pi] = true
			r.ID = persisted[pi].Record.ID
			delta.Changed = append(delta.Changed, Update{
				Previous: persisted[pi],
				Record:   r,
				Hash:     result.Hash,
			})
			replaced = true
			break
		}
		if !replaced {
			delta.New = append(delta.New, Insert{Record: r, Hash: hashes[i]})
		}
	}

	for pi, p := range persisted {
		if !used[pi] {
			delta.Removed = append(delta.Removed, p)
		}
	}
	return delta
}
