package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// FilterFields are the listing columns FetchWhere accepts.
var FilterFields = map[string]bool{
	"created_by":   true,
	"institute":    true,
	"company_name": true,
	"job_type":     true,
}

type Repository interface {
	FetchAll(ctx context.Context) ([]model.Listing, error)
	FetchWhere(ctx context.Context, field, value string) ([]model.Listing, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error

	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, email string) (*model.User, error)

	CreateImportFile(ctx context.Context, file *model.ImportFile) error
	GetImportFile(ctx context.Context, id string) (*model.ImportFile, error)
	UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, importedCount int, errorMessage *string) error
}

type repository struct {
	db       *sql.DB
	listings string
	now      func() time.Time
}

var listingColumns = []string{
	"id", "company_name", "institute", "job_type", "stipend", "role", "hr_details",
	"eligibility", "ppt_date", "oa_date", "final_hiring_number", "screenshot_url",
	"created_by", "created_at",
}

// NewRepository returns a Repository over db. listingsTable is the
// listings collection name from config.
func NewRepository(db *sql.DB, listingsTable string) Repository {
	return &repository{db: db, listings: listingsTable, now: time.Now}
}

func (r *repository) FetchAll(ctx context.Context) ([]model.Listing, error) {
	return r.queryListings(ctx, r.selectListings())
}

func (r *repository) FetchWhere(ctx context.Context, field, value string) ([]model.Listing, error) {
	if !FilterFields[field] {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedField, field)
	}
	return r.queryListings(ctx, r.selectListings().Where(sq.Eq{field: value}))
}

func (r *repository) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	query, args, err := r.selectListings().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, args...))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateListing assigns the id and creation time and inserts the listing.
func (r *repository) CreateListing(ctx context.Context, listing *model.Listing) error {
	listing.ID = uuid.New().String()
	listing.CreatedAt = r.now().UTC().Truncate(time.Millisecond)

	query, args, err := sq.Insert(r.listings).
		Columns(listingColumns...).
		Values(
			listing.ID, listing.CompanyName, listing.Institute, string(listing.JobType),
			listing.Stipend, listing.Role, listing.HRDetails,
			model.JoinEligibility(listing.Eligibility, ","),
			listing.PPTDate, listing.OADate, nullInt(listing.FinalHiringNumber),
			listing.ScreenshotURL, listing.CreatedBy, listing.CreatedAt.UnixMilli(),
		).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// UpdateListing writes the mutable fields. id, created_by and created_at
// are never changed.
func (r *repository) UpdateListing(ctx context.Context, listing *model.Listing) error {
	query, args, err := sq.Update(r.listings).
		Set("company_name", listing.CompanyName).
		Set("institute", listing.Institute).
		Set("job_type", string(listing.JobType)).
		Set("stipend", listing.Stipend).
		Set("role", listing.Role).
		Set("hr_details", listing.HRDetails).
		Set("eligibility", model.JoinEligibility(listing.Eligibility, ",")).
		Set("ppt_date", listing.PPTDate).
		Set("oa_date", listing.OADate).
		Set("final_hiring_number", nullInt(listing.FinalHiringNumber)).
		Set("screenshot_url", listing.ScreenshotURL).
		Where(sq.Eq{"id": listing.ID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) CreateUser(ctx context.Context, user model.User) error {
	if _, err := r.GetUser(ctx, user.Email); err == nil {
		return errors.ErrUserExists
	} else if !stderrors.Is(err, sql.ErrNoRows) {
		return err
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	query, args, err := sq.Insert("users").
		Columns("email", "password_hash", "created_at").
		Values(user.Email, user.PasswordHash, createdAt.UnixMilli()).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// GetUser returns sql.ErrNoRows when no account has the email.
func (r *repository) GetUser(ctx context.Context, email string) (*model.User, error) {
	query, args, err := sq.Select("email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var user model.User
	var createdAt int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.Email, &user.PasswordHash, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &user, nil
}

func (r *repository) CreateImportFile(ctx context.Context, file *model.ImportFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	file.CreatedAt, file.UpdatedAt = now, now
	if file.Status == "" {
		file.Status = model.ImportStatusUploaded
	}

	query, args, err := sq.Insert("import_files").
		Columns("id", "s3_path", "created_by", "status", "error_message", "imported_count", "created_at", "updated_at").
		Values(file.ID, file.S3Path, file.CreatedBy, string(file.Status), file.ErrorMessage,
			file.ImportedCount, now.UnixMilli(), now.UnixMilli()).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) GetImportFile(ctx context.Context, id string) (*model.ImportFile, error) {
	query, args, err := sq.Select("id", "s3_path", "created_by", "status", "error_message", "imported_count", "created_at", "updated_at").
		From("import_files").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var file model.ImportFile
	var status string
	var errorMessage sql.NullString
	var createdAt, updatedAt int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&file.ID, &file.S3Path, &file.CreatedBy, &status, &errorMessage,
		&file.ImportedCount, &createdAt, &updatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}

	file.Status = model.ImportStatus(status)
	if errorMessage.Valid {
		file.ErrorMessage = &errorMessage.String
	}
	file.CreatedAt = time.UnixMilli(createdAt).UTC()
	file.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &file, nil
}

func (r *repository) UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, importedCount int, errorMessage *string) error {
	query, args, err := sq.Update("import_files").
		Set("status", string(status)).
		Set("imported_count", importedCount).
		Set("error_message", errorMessage).
		Set("updated_at", r.now().UnixMilli()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *repository) selectListings() sq.SelectBuilder {
	return sq.Select(listingColumns...).From(r.listings).OrderBy("created_at", "id")
}

func (r *repository) queryListings(ctx context.Context, b sq.SelectBuilder) ([]model.Listing, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}

	return listings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*model.Listing, error) {
	var l model.Listing
	var jobType, eligibility string
	var finalHiring sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&l.ID, &l.CompanyName, &l.Institute, &jobType, &l.Stipend, &l.Role, &l.HRDetails,
		&eligibility, &l.PPTDate, &l.OADate, &finalHiring, &l.ScreenshotURL,
		&l.CreatedBy, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	l.JobType = model.JobType(jobType)
	l.Eligibility = model.ParseEligibility(eligibility)
	if finalHiring.Valid {
		n := int(finalHiring.Int64)
		l.FinalHiringNumber = &n
	}
	l.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &l, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
