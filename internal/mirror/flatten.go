package mirror

import (
	"net/url"
	"strconv"

	"placement-portal/internal/model"
)

// Flatten renders a listing as the spreadsheet webhook's form fields.
// The keys are the sheet's column names.
func Flatten(l model.Listing) url.Values {
	form := url.Values{}
	form.Set("documentId", l.ID)
	form.Set("companyName", l.CompanyName)
	form.Set("jobType", string(l.JobType))
	form.Set("stipend", l.Stipend)
	form.Set("role", l.Role)
	form.Set("hrDetails", l.HRDetails)
	form.Set("openFor", model.JoinEligibility(l.Eligibility, ", "))
	form.Set("pptDate", l.PPTDate)
	form.Set("oaDate", l.OADate)
	form.Set("mailScreenshot", l.ScreenshotURL)
	form.Set("finalHiringNumber", "")
	if l.FinalHiringNumber != nil {
		form.Set("finalHiringNumber", strconv.Itoa(*l.FinalHiringNumber))
	}
	form.Set("iitName", l.Institute)
	return form
}
