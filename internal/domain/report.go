package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReportStatus represents the overall assessment of an analysed report
type ReportStatus string

// Possible report status values
const (
	ReportStatusSafe    ReportStatus = "safe"
	ReportStatusWarning ReportStatus = "warning"
	ReportStatusDanger  ReportStatus = "danger"
)

var reportValidator = validator.New()

// ReportDraft is the caller-supplied content of a report before it is
// assigned an identity and a date.
type ReportDraft struct {
	Title   string            `json:"title" validate:"required"`
	Status  ReportStatus      `json:"status" validate:"required,oneof=safe warning danger"`
	Summary string            `json:"summary"`
	Details []json.RawMessage `json:"details"`
	Images  []string          `json:"images" validate:"dive,required"`
}

// Report is an analysed medical document kept in the local, append-only log.
type Report struct {
	ID      string            `json:"id"`
	Date    string            `json:"date"`
	Title   string            `json:"title"`
	Status  ReportStatus      `json:"status"`
	Summary string            `json:"summary"`
	Details []json.RawMessage `json:"details"`
	Images  []string          `json:"images"`
}

// NewReport validates the draft and stamps it with a time-ordered ID and
// the creation date. IDs generated later in the same process sort after
// earlier ones.
func NewReport(draft ReportDraft, now time.Time) (Report, error) {
	if err := draft.Validate(); err != nil {
		return Report{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Report{}, fmt.Errorf("generate report id: %w", err)
	}

	details := draft.Details
	if details == nil {
		details = []json.RawMessage{}
	}
	images := draft.Images
	if images == nil {
		images = []string{}
	}

	return Report{
		ID:      id.String(),
		Date:    now.UTC().Format(time.RFC3339),
		Title:   draft.Title,
		Status:  draft.Status,
		Summary: draft.Summary,
		Details: details,
		Images:  images,
	}, nil
}

// Validate checks the draft against its field rules.
// An unknown status yields ErrInvalidReportStatus; anything else ErrValidation.
func (d ReportDraft) Validate() error {
	err := reportValidator.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Status" {
				return fmt.Errorf("%w: %q", ErrInvalidReportStatus, d.Status)
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// Clone returns a deep copy of the report.
func (r Report) Clone() Report {
	out := r
	out.Details = make([]json.RawMessage, len(r.Details))
	for i, d := range r.Details {
		out.Details[i] = append(json.RawMessage(nil), d...)
	}
	out.Images = append([]string(nil), r.Images...)
	if out.Images == nil {
		out.Images = []string{}
	}
	return out
}
