package types

import (
	"encoding/json"
	"errors"
)

// ErrCodeShape is returned when a submission's code field is neither an
// encoded archive string nor an array of file contents.
var ErrCodeShape = errors.New("code must be an archive string or an array of strings")

// CodePayload is the tagged union behind the `code` request field: exactly
// one of Archive (a base64 zip) or Files (ordered file contents) is set
// after a successful unmarshal.
type CodePayload struct {
	Archive *string
	Files   []string
}

func (p *CodePayload) UnmarshalJSON(data []byte) error {
	var archive string
	if err := json.Unmarshal(data, &archive); err == nil {
		p.Archive = &archive
		p.Files = nil
		return nil
	}

	var files []string
	if err := json.Unmarshal(data, &files); err == nil {
		p.Archive = nil
		p.Files = files
		return nil
	}

	return ErrCodeShape
}

// Empty reports whether the field was absent or null.
func (p CodePayload) Empty() bool {
	return p.Archive == nil && p.Files == nil
}

type CreateSubmissionRequest struct {
	TaskID string      `json:"task_id" validate:"required"`
	Lang   string      `json:"lang"    validate:"required"`
	Code   CodePayload `json:"code"`
}

type CreateSubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
}

// TaskView is the task shape attached to a single submission lookup.
type TaskView struct {
	ID        string   `json:"id"`
	Type      TaskType `json:"type"`
	FileNames []string `json:"file_names,omitempty"`
	Visible   bool     `json:"visible"`
}

// SubmissionView is the full payload for a visible single submission.
type SubmissionView struct {
	Username       string   `json:"username"`
	Task           TaskView `json:"task"`
	HumanTimestamp string   `json:"human_timestamp"`
	Code           []string `json:"code"`
}

// SubmissionDetail is the visibility-gated result of a single lookup:
// either a visible payload or a redacted one. Redaction serializes to an
// empty object so hidden content is indistinguishable from nothing at the
// boundary, while internal logic never confuses the two.
type SubmissionDetail struct {
	view *SubmissionView
}

func VisibleSubmission(view SubmissionView) SubmissionDetail {
	return SubmissionDetail{view: &view}
}

func HiddenSubmission() SubmissionDetail {
	return SubmissionDetail{}
}

func (d SubmissionDetail) Hidden() bool {
	return d.view == nil
}

func (d SubmissionDetail) MarshalJSON() ([]byte, error) {
	if d.view == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.view)
}

// SubmissionRow is one full row of a submission listing.
type SubmissionRow struct {
	Username       string  `json:"username"`
	Timestamp      int64   `json:"timestamp"`
	HumanTimestamp string  `json:"human_timestamp"`
	Language       string  `json:"language"`
	Score          float64 `json:"score"`
	FullScore      float64 `json:"full_score"`
	TaskID         string  `json:"task_id"`
	Time           float64 `json:"time"`
	Memory         float64 `json:"memory"`
	SubmissionID   string  `json:"submission_id"`
}

// ListEntry is one listing position: a full row for a visible task or a
// redacted placeholder that keeps page length and order without leaking
// content. Placeholders serialize to an empty object.
type ListEntry struct {
	row *SubmissionRow
}

func VisibleEntry(row SubmissionRow) ListEntry {
	return ListEntry{row: &row}
}

func HiddenEntry() ListEntry {
	return ListEntry{}
}

func (e ListEntry) Hidden() bool {
	return e.row == nil
}

func (e ListEntry) Row() *SubmissionRow {
	return e.row
}

func (e ListEntry) MarshalJSON() ([]byte, error) {
	if e.row == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.row)
}

type ListSubmissionsResponse struct {
	Results []ListEntry `json:"results"`
	Next    *int        `json:"next"`
}
