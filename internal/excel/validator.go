package excel

import (
	"context"
	"fmt"

	"placement-portal/internal/listing"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate applies the submission rules to every row and reports the
// first failing row by its sheet row number. Company names repeated
// within one file are allowed; only the same company twice at the same
// institute is rejected.
func (v *Validator) Validate(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return errors.ErrSchemaValidation
	}

	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		if err := checkCells(row.Request); err != nil {
			return fmt.Errorf("row %d: %w", row.Number, err)
		}
		if err := listing.Validate(row.Request); err != nil {
			return fmt.Errorf("row %d: %w", row.Number, err)
		}

		key := model.Listing{CompanyName: row.Request.CompanyName}.CompanyKey() + "\x00" + row.Request.Institute
		if first, dup := seen[key]; dup {
			return fmt.Errorf("row %d: %w", row.Number, errors.ValidationError{
				Field:   "company_name",
				Value:   row.Request.CompanyName,
				Message: fmt.Sprintf("duplicates row %d for institute %s", first, row.Request.Institute),
			})
		}
		seen[key] = row.Number
	}

	return nil
}

// checkCells reports an unrecognised job type or degree by column and
// cell value, which reads better in an upload error than a schema path.
func checkCells(req model.ListingRequest) error {
	if !req.JobType.Valid() {
		return errors.ValidationError{
			Field:   "job_type",
			Value:   req.JobType,
			Message: fmt.Sprintf("must be %s or %s", model.JobTypeIntern, model.JobTypeFTE),
		}
	}
	for _, d := range req.Eligibility {
		if !d.Valid() {
			return errors.ValidationError{
				Field:   "eligibility",
				Value:   d,
				Message: "must be one of " + model.JoinEligibility(model.Degrees, ", "),
			}
		}
	}
	return nil
}
