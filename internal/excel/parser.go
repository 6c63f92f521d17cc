package excel

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"placement-portal/internal/listing"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/xuri/excelize/v2"
)

var requiredColumns = []string{"company_name", "institute", "job_type", "stipend", "eligibility"}

// Row is one parsed data row with its 1-based sheet row number.
type Row struct {
	Number  int
	Request model.ListingRequest
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads listing rows from the first worksheet. Column headers are
// matched case-insensitively; blank rows are skipped.
func (p *Parser) Parse(ctx context.Context, data []byte) ([]Row, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFileFormat, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	if len(rows) < 2 { // header + at least one data row
		return nil, errors.ErrInvalidFileFormat
	}

	columnMap := make(map[string]int)
	for i, col := range rows[0] {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return nil, fmt.Errorf("%w: missing required column: %s", errors.ErrInvalidFileFormat, col)
		}
	}

	var parsed []Row
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}

		rowNum := i + 2
		req, err := p.parseRow(row, columnMap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		parsed = append(parsed, Row{Number: rowNum, Request: req})
	}

	if len(parsed) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}
	return parsed, nil
}

func (p *Parser) parseRow(row []string, columnMap map[string]int) (model.ListingRequest, error) {
	getValue := func(colName string) string {
		if idx, exists := columnMap[colName]; exists && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	req := model.ListingRequest{
		CompanyName: getValue("company_name"),
		Institute:   getValue("institute"),
		JobType:     model.JobType(getValue("job_type")),
		Stipend:     getValue("stipend"),
		Role:        getValue("role"),
		HRDetails:   getValue("hr_details"),
		Eligibility: model.ParseEligibility(getValue("eligibility")),
		PPTDate:     getValue("ppt_date"),
		OADate:      getValue("oa_date"),
	}

	if raw := getValue("final_hiring_number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.ValidationError{
				Field:   "final_hiring_number",
				Value:   raw,
				Message: "must be a whole number",
			}
		}
		req.FinalHiringNumber = &n
	}

	return listing.Normalize(req), nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
