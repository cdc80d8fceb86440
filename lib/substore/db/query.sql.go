package db

import (
	"context"
	"strings"
)

const substitutionColumns = `id, date, class_name, lesson, subject, substitute_teacher, original_teacher, type, substitute_of, room, text, hash, fetched_at`

func scanSubstitutions(rows interface {
	Next() bool
	Scan(...any) error
	Close() error
	Err() error
}) ([]Substitution, error) {
	defer rows.Close()
	var items []Substitution
	for rows.Next() {
		var i Substitution
		if err := rows.Scan(
			&i.ID,
			&i.Date,
			&i.ClassName,
			&i.Lesson,
			&i.Subject,
			&i.SubstituteTeacher,
			&i.OriginalTeacher,
			&i.Type,
			&i.SubstituteOf,
			&i.Room,
			&i.Text,
			&i.Hash,
			&i.FetchedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const substitutionExists = `-- name: SubstitutionExists :one
select exists(
    select 1 from substitution
    where date = ? and original_teacher = ? and class_name = ? and lesson = ?
)
`

type SubstitutionExistsParams struct {
	Date            string
	OriginalTeacher string
	ClassName       string
	Lesson          string
}

func (q *Queries) SubstitutionExists(ctx context.Context, arg SubstitutionExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, substitutionExists,
		arg.Date,
		arg.OriginalTeacher,
		arg.ClassName,
		arg.Lesson,
	)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createSubstitution = `-- name: CreateSubstitution :exec
insert into substitution (` + substitutionColumns + `)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateSubstitution(ctx context.Context, arg Substitution) error {
	_, err := q.db.ExecContext(ctx, createSubstitution,
		arg.ID,
		arg.Date,
		arg.ClassName,
		arg.Lesson,
		arg.Subject,
		arg.SubstituteTeacher,
		arg.OriginalTeacher,
		arg.Type,
		arg.SubstituteOf,
		arg.Room,
		arg.Text,
		arg.Hash,
		arg.FetchedAt,
	)
	return err
}

const updateSubstitution = `-- name: UpdateSubstitution :exec
update substitution set
    subject = ?,
    substitute_teacher = ?,
    type = ?,
    substitute_of = ?,
    room = ?,
    text = ?,
    hash = ?,
    fetched_at = ?
where id = ?
`

func (q *Queries) UpdateSubstitution(ctx context.Context, arg Substitution) error {
	_, err := q.db.ExecContext(ctx, updateSubstitution,
		arg.Subject,
		arg.SubstituteTeacher,
		arg.Type,
		arg.SubstituteOf,
		arg.Room,
		arg.Text,
		arg.Hash,
		arg.FetchedAt,
		arg.ID,
	)
	return err
}

const getSubstitutionsByKey = `-- name: GetSubstitutionsByKey :many
select ` + substitutionColumns + ` from substitution
where date = ? and class_name = ? and lesson = ? and original_teacher = ?
order by id
`

type GetSubstitutionsByKeyParams struct {
	Date            string
	ClassName       string
	Lesson          string
	OriginalTeacher string
}

func (q *Queries) GetSubstitutionsByKey(ctx context.Context, arg GetSubstitutionsByKeyParams) ([]Substitution, error) {
	rows, err := q.db.QueryContext(ctx, getSubstitutionsByKey,
		arg.Date,
		arg.ClassName,
		arg.Lesson,
		arg.OriginalTeacher,
	)
	if err != nil {
		return nil, err
	}
	return scanSubstitutions(rows)
}

const deleteSubstitution = `-- name: DeleteSubstitution :exec
delete from substitution where id = ?
`

func (q *Queries) DeleteSubstitution(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteSubstitution, id)
	return err
}

const deleteSubstitutionsForDate = `-- name: DeleteSubstitutionsForDate :execrows
delete from substitution where date = ?
`

func (q *Queries) DeleteSubstitutionsForDate(ctx context.Context, date string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSubstitutionsForDate, date)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSubstitutionsForDate = `-- name: GetSubstitutionsForDate :many
select ` + substitutionColumns + ` from substitution
where date = ?
order by class_name, lesson, original_teacher, id
`

func (q *Queries) GetSubstitutionsForDate(ctx context.Context, date string) ([]Substitution, error) {
	rows, err := q.db.QueryContext(ctx, getSubstitutionsForDate, date)
	if err != nil {
		return nil, err
	}
	return scanSubstitutions(rows)
}

const getSubstitutionsInRange = `-- name: GetSubstitutionsInRange :many
select ` + substitutionColumns + ` from substitution
where date >= ? and date <= ?
order by date, class_name, lesson, original_teacher, id
`

type GetSubstitutionsInRangeParams struct {
	From string
	To   string
}

func (q *Queries) GetSubstitutionsInRange(ctx context.Context, arg GetSubstitutionsInRangeParams) ([]Substitution, error) {
	rows, err := q.db.QueryContext(ctx, getSubstitutionsInRange, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	return scanSubstitutions(rows)
}

const getSubstitutionsForTeacher = `-- name: GetSubstitutionsForTeacher :many
select ` + substitutionColumns + ` from substitution
where date >= ? and date <= ? and (original_teacher = ? or substitute_teacher = ?)
order by date, lesson, class_name, id
`

type GetSubstitutionsForTeacherParams struct {
	From    string
	To      string
	Teacher string
}

func (q *Queries) GetSubstitutionsForTeacher(ctx context.Context, arg GetSubstitutionsForTeacherParams) ([]Substitution, error) {
	rows, err := q.db.QueryContext(ctx, getSubstitutionsForTeacher,
		arg.From,
		arg.To,
		arg.Teacher,
		arg.Teacher,
	)
	if err != nil {
		return nil, err
	}
	return scanSubstitutions(rows)
}

const getSubstitutionsForLesson = `-- name: GetSubstitutionsForLesson :many
select ` + substitutionColumns + ` from substitution
where date = ? and lesson = ?
order by class_name, original_teacher, id
`

type GetSubstitutionsForLessonParams struct {
	Date   string
	Lesson string
}

func (q *Queries) GetSubstitutionsForLesson(ctx context.Context, arg GetSubstitutionsForLessonParams) ([]Substitution, error) {
	rows, err := q.db.QueryContext(ctx, getSubstitutionsForLesson, arg.Date, arg.Lesson)
	if err != nil {
		return nil, err
	}
	return scanSubstitutions(rows)
}

func (q *Queries) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDates = `-- name: GetDates :many
select distinct date from substitution order by date
`

func (q *Queries) GetDates(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, getDates)
}

const getTeachers = `-- name: GetTeachers :many
select distinct original_teacher from substitution order by original_teacher
`

func (q *Queries) GetTeachers(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, getTeachers)
}

const getClassNames = `-- name: GetClassNames :many
select distinct class_name from substitution order by class_name
`

func (q *Queries) GetClassNames(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, getClassNames)
}

const createSubscription = `-- name: CreateSubscription :exec
insert into subscription (device_token, topic, created_at) values (?, ?, ?)
on conflict (device_token, topic) do nothing
`

func (q *Queries) CreateSubscription(ctx context.Context, arg Subscription) error {
	_, err := q.db.ExecContext(ctx, createSubscription, arg.DeviceToken, arg.Topic, arg.CreatedAt)
	return err
}

const deleteSubscription = `-- name: DeleteSubscription :execrows
delete from subscription where device_token = ? and topic = ?
`

type DeleteSubscriptionParams struct {
	DeviceToken string
	Topic       string
}

func (q *Queries) DeleteSubscription(ctx context.Context, arg DeleteSubscriptionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSubscription, arg.DeviceToken, arg.Topic)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getDevicesForTopics = `-- name: GetDevicesForTopics :many
select distinct device_token from subscription
where topic in (/*SLICE:topics*/?)
order by device_token
`

func (q *Queries) GetDevicesForTopics(ctx context.Context, topics []string) ([]string, error) {
	query := getDevicesForTopics
	var queryParams []interface{}
	if len(topics) > 0 {
		for _, v := range topics {
			queryParams = append(queryParams, v)
		}
		query = strings.Replace(query, "/*SLICE:topics*/?", strings.Repeat(",?", len(topics))[1:], 1)
	} else {
		query = strings.Replace(query, "/*SLICE:topics*/?", "NULL", 1)
	}
	rows, err := q.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		items = append(items, token)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
