package changedetect

import (
	"strconv"
	"strings"

	"vplan-backend/lib/scrapers/untis"

	"github.com/cespare/xxhash/v2"
)

// ContentHash is an opaque digest of a record's canonical form, it is
// only ever used for equality.
type ContentHash string

const fieldSeparator = "\x1f"

// Canonical returns the fixed order string form of every field of a
// record except its synthetic id.
func Canonical(r untis.SubstitutionRecord) string {
	return strings.Join([]string{
		r.Date.Format(untis.DateLayout),
		r.ClassName,
		r.Lesson,
		r.Subject,
		r.SubstituteTeacher,
		r.OriginalTeacher,
		r.Type,
		r.SubstituteOf,
		r.Room,
		r.Text,
	}, fieldSeparator)
}

// HashString hashes an arbitrary canonical string, callers with their own
// surrogate forms use it directly.
func HashString(canonical string) ContentHash {
	sum := xxhash.Sum64String(canonical)
	hex := strconv.FormatUint(sum, 16)
	return ContentHash(strings.Repeat("0", 16-len(hex)) + hex)
}

func Hash(r untis.SubstitutionRecord) ContentHash {
	return HashString(Canonical(r))
}

type Match int

const (
	Unchanged Match = iota
	Changed
)

func (m Match) String() string {
	if m == Unchanged {
		return "unchanged"
	}
	return "changed"
}

type MatchResult struct {
	Match Match
	// Hash is the record's hash, for Changed it is the value to persist.
	Hash ContentHash
}

// Compare reports Unchanged only if the record hashes to exactly `known`.
func Compare(r untis.SubstitutionRecord, known ContentHash) MatchResult {
	hash := Hash(r)
	if hash == known {
		return MatchResult{Match: Unchanged, Hash: hash}
	}
	return MatchResult{Match: Changed, Hash: hash}
}
