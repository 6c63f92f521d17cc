package listing

import (
	_ "embed"
	"fmt"
	"strings"

	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed listing.schema.json
var schemaJSON string

var listingSchema = mustLoadSchema()

func mustLoadSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid listing schema: %v", err))
	}
	return schema
}

// Normalize trims surrounding whitespace from the free-text fields.
func Normalize(req model.ListingRequest) model.ListingRequest {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Institute = strings.TrimSpace(req.Institute)
	req.Stipend = strings.TrimSpace(req.Stipend)
	req.Role = strings.TrimSpace(req.Role)
	req.HRDetails = strings.TrimSpace(req.HRDetails)
	req.PPTDate = strings.TrimSpace(req.PPTDate)
	req.OADate = strings.TrimSpace(req.OADate)
	if req.JobType == "" {
		req.JobType = model.JobTypeIntern
	}
	return req
}

// Validate checks a request against the listing schema. At least one
// eligible degree is required.
func Validate(req model.ListingRequest) error {
	res, err := listingSchema.Validate(gojsonschema.NewGoLoader(req))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", errors.ErrSchemaValidation, strings.Join(msgs, "; "))
}
