package excel

import (
	"bytes"
	"fmt"
	"strings"

	"placement-portal/internal/model"
	"placement-portal/internal/viewmodel"

	"github.com/xuri/excelize/v2"
)

const (
	ListingsSheet  = "Listings"
	CompaniesSheet = "Companies"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ListingHeader is the Listings sheet header. It doubles as the import
// template, so an export can be re-imported as is.
var ListingHeader = []string{
	"id", "company_name", "institute", "job_type", "stipend", "role", "hr_details",
	"eligibility", "ppt_date", "oa_date", "final_hiring_number", "screenshot_url",
	"created_by", "created_at",
}

var companyHeader = []string{"company_name", "listings", "institutes"}

// WriteWorkbook renders listings to an xlsx workbook with one row per
// listing and a per-company summary sheet.
func WriteWorkbook(listings []model.Listing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ListingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(CompaniesSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, ListingsSheet, 1, toCells(ListingHeader)); err != nil {
		return nil, err
	}
	for i, l := range listings {
		if err := setRow(f, ListingsSheet, i+2, listingCells(l)); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, CompaniesSheet, 1, toCells(companyHeader)); err != nil {
		return nil, err
	}
	for i, g := range viewmodel.Group(listings) {
		cells := []interface{}{g.CompanyName, len(g.Listings), strings.Join(g.Institutes(), ", ")}
		if err := setRow(f, CompaniesSheet, i+2, cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func listingCells(l model.Listing) []interface{} {
	var hires interface{} = ""
	if l.FinalHiringNumber != nil {
		hires = *l.FinalHiringNumber
	}
	return []interface{}{
		l.ID, l.CompanyName, l.Institute, string(l.JobType), l.Stipend, l.Role, l.HRDetails,
		model.JoinEligibility(l.Eligibility, ", "), l.PPTDate, l.OADate, hires, l.ScreenshotURL,
		l.CreatedBy, l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
