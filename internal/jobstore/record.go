package jobstore

import (
	"encoding/json"
	"strings"
	"time"
)

// Job is a single job posting as persisted in the collection blob
type Job struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CompanyName    string    `json:"companyName"`
	Location       string    `json:"location,omitempty"`
	Domain         string    `json:"domain,omitempty"`
	WorkType       string    `json:"workType,omitempty"`
	EmploymentType string    `json:"employmentType,omitempty"`
	UserType       string    `json:"userType,omitempty"`
	SalaryRange    string    `json:"salaryRange,omitempty"`
	ApplyLink      string    `json:"applyLink,omitempty"`
	CareerLink     string    `json:"careerLink,omitempty"`
	CompanySummary *string   `json:"companySummary"`
	IsSpam         bool      `json:"isSpam"`
	UserID         string    `json:"userId"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Extra keeps fields written by other tools so a rewrite of the blob
	// carries them through unchanged
	Extra map[string]json.RawMessage `json:"-"`
}

// Draft is the caller-supplied part of a Job. The store assigns the id,
// enrichment fields and timestamps.
type Draft struct {
	Title          string
	Description    string
	CompanyName    string
	Location       string
	Domain         string
	WorkType       string
	EmploymentType string
	UserType       string
	SalaryRange    string
	ApplyLink      string
	CareerLink     string
	UserID         string
	CreatedBy      string
}

// Identity is the authenticated caller an append is attributed to
type Identity struct {
	UserID string
	Login  string
}

// Validate checks the fields every posting must carry
func (d Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(d.CompanyName) == "" {
		missing = append(missing, "companyName")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// toJob builds the persisted record. Attribution falls back to the caller.
func (d Draft) toJob(id int, who Identity, summary *string, spam bool, now time.Time) Job {
	userID := d.UserID
	if userID == "" {
		userID = who.UserID
	}
	createdBy := d.CreatedBy
	if createdBy == "" {
		createdBy = who.Login
	}

	return Job{
		ID:             id,
		Title:          d.Title,
		Description:    d.Description,
		CompanyName:    d.CompanyName,
		Location:       d.Location,
		Domain:         d.Domain,
		WorkType:       d.WorkType,
		EmploymentType: d.EmploymentType,
		UserType:       d.UserType,
		SalaryRange:    d.SalaryRange,
		ApplyLink:      d.ApplyLink,
		CareerLink:     d.CareerLink,
		CompanySummary: summary,
		IsSpam:         spam,
		UserID:         userID,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Collection is the ordered list of jobs stored in one blob
type Collection []Job

// NextID returns max(id)+1, or 1 for an empty collection
func (c Collection) NextID() int {
	maxID := 0
	for _, j := range c {
		if j.ID > maxID {
			maxID = j.ID
		}
	}
	return maxID + 1
}

// Predicate selects jobs in Find
type Predicate func(Job) bool

// Find returns the jobs matching every predicate, in collection order.
// It never touches the backend.
func Find(c Collection, preds ...Predicate) []Job {
	out := make([]Job, 0)
	for _, j := range c {
		if matchesAll(j, preds) {
			out = append(out, j)
		}
	}
	return out
}

func matchesAll(j Job, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(j) {
			return false
		}
	}
	return true
}

func ByUser(userID string) Predicate {
	return func(j Job) bool { return j.UserID == userID }
}

func ByID(id int) Predicate {
	return func(j Job) bool { return j.ID == id }
}

func NotSpam() Predicate {
	return func(j Job) bool { return !j.IsSpam }
}
