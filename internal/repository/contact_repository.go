// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for CRUD, search and birthday lookup
// over contacts. Every query is scoped to the owning user: a contact is
// never visible to, or mutable by, anyone but its owner.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/contact-book/internal/model"
)

// ContactRepo encapsulates all database queries related to contacts. It
// depends on a sql.DB connection which is configured at startup and can be
// replaced with a mock in tests.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo constructs a ContactRepo with the provided DB handle.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

const contactCols = "id, user_id, firstname, lastname, email, phone, birthday, note, created_at, updated_at"

func scanContact(row interface{ Scan(...any) error }) (*model.Contact, error) {
	var (
		c        model.Contact
		birthday sql.NullTime
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Firstname, &c.Lastname, &c.Email, &c.Phone,
		&birthday, &c.Note, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if birthday.Valid {
		c.Birthday = &birthday.Time
	}
	return &c, nil
}

// List returns up to limit contacts belonging to ownerID in insertion
// order, skipping offset rows. Callers cap the limit.
func (r *ContactRepo) List(ctx context.Context, ownerID uint64, limit, offset int) ([]*model.Contact, error) {
	const q = "SELECT " + contactCols + " FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Contact, 0, limit)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one contact by id, but only if it belongs to ownerID.
// Foreign-owned and absent records both come back as ErrContactNotFound.
func (r *ContactRepo) GetByID(ctx context.Context, id, ownerID uint64) (*model.Contact, error) {
	const q = "SELECT " + contactCols + " FROM contacts WHERE id = ? AND user_id = ?"
	c, err := scanContact(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByEmail fetches one contact by email within the owner's list.
func (r *ContactRepo) GetByEmail(ctx context.Context, email string, ownerID uint64) (*model.Contact, error) {
	const q = "SELECT " + contactCols + " FROM contacts WHERE email = ? AND user_id = ?"
	c, err := scanContact(r.db.QueryRowContext(ctx, q, email, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a new contact. On success the ID field is populated and a
// follow-up SELECT fills the server-set timestamps so callers receive a
// fully populated record. A duplicate (user_id, email) pair maps to
// ErrConflict.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	const qInsert = "INSERT INTO contacts (user_id, firstname, lastname, email, phone, birthday, note) VALUES (?,?,?,?,?,?,?)"
	res, err := r.db.ExecContext(ctx, qInsert,
		c.UserID, c.Firstname, c.Lastname, c.Email, c.Phone, nullableDate(c.Birthday), c.Note)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM contacts WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// Update overwrites all mutable fields of the contact with the given id,
// provided it belongs to ownerID, and returns the updated record. Partial
// updates are not supported. The existence check and the write are two
// statements without a transaction; a concurrent delete in between loses
// the row and the follow-up read reports not found.
func (r *ContactRepo) Update(ctx context.Context, id, ownerID uint64, c *model.Contact) (*model.Contact, error) {
	if _, err := r.GetByID(ctx, id, ownerID); err != nil {
		return nil, err
	}
	const q = `UPDATE contacts
	           SET firstname = ?, lastname = ?, email = ?, phone = ?, birthday = ?, note = ?
	           WHERE id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		c.Firstname, c.Lastname, c.Email, c.Phone, nullableDate(c.Birthday), c.Note, id, ownerID); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return nil, ErrConflict
		}
		return nil, err
	}
	return r.GetByID(ctx, id, ownerID)
}

// Delete permanently removes the contact if it belongs to ownerID. A second
// delete of the same id reports ErrContactNotFound, never a crash.
func (r *ContactRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM contacts WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContactNotFound
	}
	return nil
}

// SearchByName returns the owner's contacts whose firstname OR lastname
// contains the given fragment, case-insensitively. An empty parameter
// contributes no condition, so a first-name-only query matches on the
// first name alone. Both empty means nothing to match.
func (r *ContactRepo) SearchByName(ctx context.Context, ownerID uint64, first, last string) ([]*model.Contact, error) {
	where := []string{}
	args := []any{ownerID}

	if first != "" {
		where = append(where, "LOWER(firstname) LIKE ?")
		args = append(args, "%"+strings.ToLower(first)+"%")
	}
	if last != "" {
		where = append(where, "LOWER(lastname) LIKE ?")
		args = append(args, "%"+strings.ToLower(last)+"%")
	}
	if len(where) == 0 {
		return []*model.Contact{}, nil
	}

	q := "SELECT " + contactCols + " FROM contacts WHERE user_id = ? AND (" +
		strings.Join(where, " OR ") + ") ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpcomingBirthdays returns the owner's contacts whose birthday, re-anchored
// onto the current year, falls within [today, today+windowDays]. Pagination
// applies to the raw contact page BEFORE the window filter, so a page can
// come back empty while later pages still hold matches. That ordering is
// observable behavior the API has always had and is kept on purpose, even
// though it looks like a defect.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, ownerID uint64, limit, offset, windowDays int) ([]*model.Contact, error) {
	page, err := r.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	today := truncateToDate(time.Now().UTC())
	out := make([]*model.Contact, 0, len(page))
	for _, c := range page {
		if c.Birthday == nil {
			continue
		}
		if birthdayInWindow(*c.Birthday, today, windowDays) {
			out = append(out, c)
		}
	}
	return out, nil
}

// birthdayInWindow re-anchors the birthday's month/day onto today's year and
// reports whether it lands within [today, today+windowDays]. A Feb 29
// birthday clamps to Feb 28 on non-leap years instead of normalizing to
// Mar 1.
func birthdayInWindow(birthday, today time.Time, windowDays int) bool {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeapYear(today.Year()) {
		day = 28
	}
	anchored := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	end := today.AddDate(0, 0, windowDays)
	return !anchored.Before(today) && !anchored.After(end)
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
