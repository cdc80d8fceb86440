package substore

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"vplan-backend/lib/changedetect"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/substore/db"
	"vplan-backend/lib/timezone"
	"vplan-backend/lib/topics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("vplan.lib.substore")

// Store persists substitution records and device subscriptions.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	clock  timezone.Clock
	newID  func() string
}

func NewStore(database *sql.DB) Store {
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		clock:  timezone.StandardClock{},
		newID:  uuid.NewString,
	}
}

// WithClock returns a copy of the store stamping rows with the given clock.
func (s Store) WithClock(clock timezone.Clock) Store {
	s.clock = clock
	return s
}

func dateKey(date time.Time) string {
	return date.In(timezone.Location).Format(untis.DateLayout)
}

func toRecord(row db.Substitution) (untis.SubstitutionRecord, error) {
	date, err := time.ParseInLocation(untis.DateLayout, row.Date, timezone.Location)
	if err != nil {
		return untis.SubstitutionRecord{}, fmt.Errorf("row %s: %w", row.ID, err)
	}
	return untis.SubstitutionRecord{
		ID:                row.ID,
		Date:              date,
		ClassName:         row.ClassName,
		Lesson:            row.Lesson,
		Subject:           row.Subject,
		SubstituteTeacher: row.SubstituteTeacher,
		OriginalTeacher:   row.OriginalTeacher,
		Type:              row.Type,
		SubstituteOf:      row.SubstituteOf,
		Room:              row.Room,
		Text:              row.Text,
	}, nil
}

func toRecords(rows []db.Substitution) ([]untis.SubstitutionRecord, error) {
	out := make([]untis.SubstitutionRecord, len(rows))
	for i, row := range rows {
		record, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		out[i] = record
	}
	return out, nil
}

func toPersisted(rows []db.Substitution) ([]changedetect.Persisted, error) {
	out := make([]changedetect.Persisted, len(rows))
	for i, row := range rows {
		record, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		out[i] = changedetect.Persisted{Record: record, Hash: changedetect.ContentHash(row.Hash)}
	}
	return out, nil
}

func (s Store) toRow(record untis.SubstitutionRecord, hash changedetect.ContentHash) db.Substitution {
	return db.Substitution{
		ID:                record.ID,
		Date:              dateKey(record.Date),
		ClassName:         record.ClassName,
		Lesson:            record.Lesson,
		Subject:           record.Subject,
		SubstituteTeacher: record.SubstituteTeacher,
		OriginalTeacher:   record.OriginalTeacher,
		Type:              record.Type,
		SubstituteOf:      record.SubstituteOf,
		Room:              record.Room,
		Text:              record.Text,
		Hash:              string(hash),
		FetchedAt:         s.clock.Now().Unix(),
	}
}

// Exists reports whether any record is stored for the given dimensions.
func (s Store) Exists(ctx context.Context, date time.Time, teacher, className, lesson string) (bool, error) {
	return s.qry.SubstitutionExists(ctx, db.SubstitutionExistsParams{
		Date:            dateKey(date),
		OriginalTeacher: teacher,
		ClassName:       className,
		Lesson:          lesson,
	})
}

// Upsert stores a single record at its key: identical content is left
// alone, different content replaces the first row with that key, and a
// missing key is inserted. The stored record (with its id) is returned.
func (s Store) Upsert(ctx context.Context, record untis.SubstitutionRecord) (untis.SubstitutionRecord, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return record, err
	}
	defer discard()

	key := record.Key()
	rows, err := tx.GetSubstitutionsByKey(ctx, db.GetSubstitutionsByKeyParams{
		Date:            key.Date,
		ClassName:       key.ClassName,
		Lesson:          key.Lesson,
		OriginalTeacher: key.OriginalTeacher,
	})
	if err != nil {
		return record, err
	}

	hash := changedetect.Hash(record)
	for _, row := range rows {
		if changedetect.ContentHash(row.Hash) == hash {
			record.ID = row.ID
			return record, nil
		}
	}

	if len(rows) > 0 {
		record.ID = rows[0].ID
		err = tx.UpdateSubstitution(ctx, s.toRow(record, hash))
	} else {
		record.ID = s.newID()
		err = tx.CreateSubstitution(ctx, s.toRow(record, hash))
	}
	if err != nil {
		return record, err
	}
	return record, commit()
}

// DeleteAllForDate removes every record of a date.
func (s Store) DeleteAllForDate(ctx context.Context, date time.Time) (int64, error) {
	return s.qry.DeleteSubstitutionsForDate(ctx, dateKey(date))
}

// Day returns the persisted records of a date with their hashes.
func (s Store) Day(ctx context.Context, date time.Time) ([]changedetect.Persisted, error) {
	rows, err := s.qry.GetSubstitutionsForDate(ctx, dateKey(date))
	if err != nil {
		return nil, err
	}
	return toPersisted(rows)
}

// ReplaceDay makes `records` the complete state of `date`. The diff
// against the stored day is applied in a single transaction so readers
// observe either the old or the new day. Inserted records receive their
// ids in the returned delta.
func (s Store) ReplaceDay(ctx context.Context, date time.Time, records []untis.SubstitutionRecord) (changedetect.Delta, error) {
	day := dateKey(date)

	ctx, span := tracer.Start(ctx, "ReplaceDay")
	defer span.End()
	span.SetAttributes(attribute.String("date", day), attribute.Int("records", len(records)))

	for _, r := range records {
		if dateKey(r.Date) != day {
			err := fmt.Errorf("replace day %s: record %s belongs to another date", day, r)
			span.SetStatus(codes.Error, err.Error())
			return changedetect.Delta{}, err
		}
	}

	delta, err := s.replaceDay(ctx, day, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to replace day")
		return changedetect.Delta{}, fmt.Errorf("replace day %s: %w", day, err)
	}

	span.SetAttributes(
		attribute.Int("new", len(delta.New)),
		attribute.Int("changed", len(delta.Changed)),
		attribute.Int("removed", len(delta.Removed)),
	)
	return delta, nil
}

func (s Store) replaceDay(ctx context.Context, day string, records []untis.SubstitutionRecord) (changedetect.Delta, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return changedetect.Delta{}, err
	}
	defer discard()

	rows, err := tx.GetSubstitutionsForDate(ctx, day)
	if err != nil {
		return changedetect.Delta{}, err
	}
	persisted, err := toPersisted(rows)
	if err != nil {
		return changedetect.Delta{}, err
	}

	delta := changedetect.Diff(records, persisted)

	for _, removed := range delta.Removed {
		err = tx.DeleteSubstitution(ctx, removed.Record.ID)
		if err != nil {
			return changedetect.Delta{}, err
		}
	}
	for _, changed := range delta.Changed {
		err = tx.UpdateSubstitution(ctx, s.toRow(changed.Record, changed.Hash))
		if err != nil {
			return changedetect.Delta{}, err
		}
	}
	for i := range delta.New {
		delta.New[i].Record.ID = s.newID()
		err = tx.CreateSubstitution(ctx, s.toRow(delta.New[i].Record, delta.New[i].Hash))
		if err != nil {
			return changedetect.Delta{}, err
		}
	}

	err = commit()
	if err != nil {
		return changedetect.Delta{}, err
	}
	return delta, nil
}

// ListRange returns every record between from and to (inclusive dates).
func (s Store) ListRange(ctx context.Context, from, to time.Time) ([]untis.SubstitutionRecord, error) {
	rows, err := s.qry.GetSubstitutionsInRange(ctx, db.GetSubstitutionsInRangeParams{
		From: dateKey(from),
		To:   dateKey(to),
	})
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

// ListByClass returns the records in range whose (possibly merged) class
// label denotes className.
func (s Store) ListByClass(ctx context.Context, from, to time.Time, className string) ([]untis.SubstitutionRecord, error) {
	records, err := s.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var out []untis.SubstitutionRecord
	for _, r := range records {
		if r.ClassName == className || slices.Contains(topics.SplitClasses(r.ClassName), className) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListByTeacher returns the records in range where teacher is either the
// absent or the substituting teacher.
func (s Store) ListByTeacher(ctx context.Context, from, to time.Time, teacher string) ([]untis.SubstitutionRecord, error) {
	rows, err := s.qry.GetSubstitutionsForTeacher(ctx, db.GetSubstitutionsForTeacherParams{
		From:    dateKey(from),
		To:      dateKey(to),
		Teacher: teacher,
	})
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

func (s Store) ListByLesson(ctx context.Context, date time.Time, lesson string) ([]untis.SubstitutionRecord, error) {
	rows, err := s.qry.GetSubstitutionsForLesson(ctx, db.GetSubstitutionsForLessonParams{
		Date:   dateKey(date),
		Lesson: lesson,
	})
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

// Dates returns every date that has at least one record.
func (s Store) Dates(ctx context.Context) ([]time.Time, error) {
	days, err := s.qry.GetDates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i], err = time.ParseInLocation(untis.DateLayout, d, timezone.Location)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s Store) Teachers(ctx context.Context) ([]string, error) {
	return s.qry.GetTeachers(ctx)
}

// Classes returns the individual classes (merged labels expanded) that
// have records.
func (s Store) Classes(ctx context.Context) ([]string, error) {
	labels, err := s.qry.GetClassNames(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, label := range labels {
		for _, class := range topics.SplitClasses(label) {
			if seen[class] {
				continue
			}
			seen[class] = true
			out = append(out, class)
		}
	}
	slices.Sort(out)
	return out, nil
}
