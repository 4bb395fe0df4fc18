package models

// CreateJobRequest represents the request payload for posting a job
type CreateJobRequest struct {
	Title          string `json:"title" validate:"required,notblank,max=200"`
	Description    string `json:"description" validate:"required,notblank"`
	CompanyName    string `json:"companyName" validate:"required,notblank,max=200"`
	Location       string `json:"location,omitempty"`
	Domain         string `json:"domain,omitempty"`
	WorkType       string `json:"workType,omitempty"`
	EmploymentType string `json:"employmentType,omitempty"`
	UserType       string `json:"userType,omitempty"`
	SalaryRange    string `json:"salaryRange,omitempty"`
	ApplyLink      string `json:"applyLink,omitempty" validate:"omitempty,url"`
	CareerLink     string `json:"careerLink,omitempty" validate:"omitempty,http_url"`
	UserID         string `json:"userId,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty"`
}

// OAuthCallbackRequest carries the code and state GitHub handed back to the frontend
type OAuthCallbackRequest struct {
	Code  string `json:"code" query:"code" validate:"required"`
	State string `json:"state" query:"state" validate:"required"`
}

// CreateIssueRequest represents the request payload for opening a GitHub issue
type CreateIssueRequest struct {
	Title  string   `json:"title" validate:"required,notblank,max=256"`
	Body   string   `json:"body,omitempty"`
	Labels []string `json:"labels,omitempty" validate:"omitempty,max=20,dive,issue_label"`
}

// ListIssuesQuery are the query parameters accepted by the issues listing
type ListIssuesQuery struct {
	State   string `query:"state" validate:"omitempty,oneof=open closed all"`
	Labels  string `query:"labels"`
	Page    int    `query:"page" validate:"gte=0"`
	PerPage int    `query:"per_page" validate:"gte=0,lte=100"`
}

// ListJobsQuery filters the public job listing
type ListJobsQuery struct {
	UserID      string `query:"userId"`
	ExcludeSpam bool   `query:"excludeSpam"`
}

// SummaryRequest asks for an on-demand company summary
type SummaryRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}
