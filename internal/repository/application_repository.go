package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/TimohaVysochynskyi/TripleGeneralAPI/internal/model"
)

const applicationColumns = `a.id,a.user_id,a.first_name,a.last_name,a.patronymic,a.birth_date,
a.passport_series,a.passport_number,a.issuing_authority,a.place_of_residence,
a.passport_photo_url,a.user_photo_url,a.digital_signature_url,
a.status,a.created_at,a.updated_at,a.processed_at,a.processed_by,a.rejection_reason`

// sortColumns is the allow-list of admin listing sort keys. Keys map
// client-facing names to columns; anything else falls back to submission
// time. Never interpolate raw client input into ORDER BY.
var sortColumns = map[string]string{
	"submittedAt": "a.created_at",
	"status":      "a.status",
	"firstName":   "a.first_name",
	"lastName":    "a.last_name",
	"email":       "u.email",
}

// sortColumn resolves a client sort key against the allow-list.
func sortColumn(key string) string {
	if col, ok := sortColumns[key]; ok {
		return col
	}
	return "a.created_at"
}

type ApplicationRepo struct{ DB *sql.DB }

func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{DB: db} }

// Create inserts a pending application and returns its ID. The UNIQUE key
// on user_id turns a concurrent double-submit into ErrDuplicate.
func (r *ApplicationRepo) Create(ctx context.Context, a model.Application) (uint64, error) {
	var signature any
	if a.DigitalSignatureURL != "" {
		signature = a.DigitalSignatureURL
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO applications
		 (user_id, first_name, last_name, patronymic, birth_date,
		  passport_series, passport_number, issuing_authority, place_of_residence,
		  passport_photo_url, user_photo_url, digital_signature_url)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.FirstName, a.LastName, a.Patronymic, a.BirthDate,
		a.PassportSeries, a.PassportNumber, a.IssuingAuthority, a.PlaceOfResidence,
		a.PassportPhotoURL, a.UserPhotoURL, signature)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an application by id.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (model.Application, error) {
	return r.getWhere(ctx, "a.id=?", id)
}

// GetByUserID fetches the single application owned by the user.
func (r *ApplicationRepo) GetByUserID(ctx context.Context, userID uint64) (model.Application, error) {
	return r.getWhere(ctx, "a.user_id=?", userID)
}

func (r *ApplicationRepo) getWhere(ctx context.Context, cond string, arg any) (model.Application, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM applications a WHERE "+cond+" LIMIT 1", arg)
	a, err := scanApplication(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Application{}, ErrNotFound
	}
	if err != nil {
		return model.Application{}, err
	}
	return a, nil
}

// scanApplication maps one row into a model.Application, converting the
// nullable columns (signature, processed metadata, rejection reason).
func scanApplication(scan func(...any) error, extra ...any) (model.Application, error) {
	var (
		a           model.Application
		signature   sql.NullString
		processedAt sql.NullTime
		processedBy sql.NullInt64
		reason      sql.NullString
	)
	dest := []any{
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Patronymic, &a.BirthDate,
		&a.PassportSeries, &a.PassportNumber, &a.IssuingAuthority, &a.PlaceOfResidence,
		&a.PassportPhotoURL, &a.UserPhotoURL, &signature,
		&a.Status, &a.CreatedAt, &a.UpdatedAt, &processedAt, &processedBy, &reason,
	}
	dest = append(dest, extra...)
	if err := scan(dest...); err != nil {
		return model.Application{}, err
	}
	if signature.Valid {
		a.DigitalSignatureURL = signature.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		a.ProcessedAt = &t
	}
	if processedBy.Valid {
		v := uint64(processedBy.Int64)
		a.ProcessedBy = &v
	}
	if reason.Valid {
		s := reason.String
		a.RejectionReason = &s
	}
	return a, nil
}

// List returns one page of applications joined with the owner's identity
// and the processing admin's username, plus the total count of the
// filtered set. Pagination and sorting follow the filter defaults applied
// by the service (page 1, limit 10, newest first).
func (r *ApplicationRepo) List(ctx context.Context, f model.ApplicationFilter) ([]model.ApplicationListItem, int64, error) {
	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "a.status=?")
		args = append(args, f.Status)
	}
	if f.UserID != 0 {
		where = append(where, "a.user_id=?")
		args = append(args, f.UserID)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM applications a WHERE ` + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}

	limit := f.Limit
	offset := (f.Page - 1) * f.Limit

	dataSQL := `SELECT ` + applicationColumns + `,
			u.username, u.email,
			processor.username AS processor_username
		FROM applications a
		LEFT JOIN users u ON u.id = a.user_id
		LEFT JOIN users processor ON processor.id = a.processed_by
		WHERE ` + cond + `
		ORDER BY ` + sortColumn(f.SortBy) + ` ` + order + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.ApplicationListItem, 0, limit)
	for rows.Next() {
		var (
			item      model.ApplicationListItem
			username  sql.NullString
			email     sql.NullString
			processor sql.NullString
		)
		a, err := scanApplication(rows.Scan, &username, &email, &processor)
		if err != nil {
			return nil, 0, err
		}
		item.Application = a
		item.Username = username.String
		item.Email = email.String
		if processor.Valid {
			s := processor.String
			item.ProcessorUsername = &s
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus writes the decision onto the application row: status,
// processed timestamp, processing admin and (for rejections) the reason.
func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id uint64, status string, processedBy uint64, rejectionReason *string) error {
	var reason any
	if rejectionReason != nil {
		reason = *rejectionReason
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE applications
		 SET status=?, processed_at=NOW(), processed_by=?, rejection_reason=?
		 WHERE id=?`,
		status, processedBy, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the application row.
func (r *ApplicationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM applications WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
