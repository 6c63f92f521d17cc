package model

// ListingRequest carries the editable fields of a listing from the
// submission and edit forms, and from import rows.
type ListingRequest struct {
	CompanyName       string   `json:"company_name" form:"company_name"`
	Institute         string   `json:"institute" form:"institute"`
	JobType           JobType  `json:"job_type" form:"job_type"`
	Stipend           string   `json:"stipend" form:"stipend"`
	Role              string   `json:"role" form:"role"`
	HRDetails         string   `json:"hr_details" form:"hr_details"`
	Eligibility       []Degree `json:"eligibility" form:"eligibility"`
	PPTDate           string   `json:"ppt_date" form:"ppt_date"`
	OADate            string   `json:"oa_date" form:"oa_date"`
	FinalHiringNumber *int     `json:"final_hiring_number,omitempty" form:"final_hiring_number"`
}

// Apply copies the request's editable fields onto l.
func (r ListingRequest) Apply(l *Listing) {
	l.CompanyName = r.CompanyName
	l.Institute = r.Institute
	l.JobType = r.JobType
	l.Stipend = r.Stipend
	l.Role = r.Role
	l.HRDetails = r.HRDetails
	l.Eligibility = append([]Degree(nil), r.Eligibility...)
	l.PPTDate = r.PPTDate
	l.OADate = r.OADate
	l.FinalHiringNumber = r.FinalHiringNumber
}

type MirrorJob struct {
	ListingID string `json:"listing_id"`
}

type ImportJob struct {
	FileID    string `json:"file_id"`
	S3Path    string `json:"s3_path"`
	CreatedBy string `json:"created_by"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type SortRequest struct {
	Field string `json:"field" binding:"required"`
}

type BackfillResponse struct {
	Total    int `json:"total"`
	Mirrored int `json:"mirrored"`
	Failed   int `json:"failed"`
}
