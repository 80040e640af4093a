package model

import "time"

// RunReport aggregates the results of one annotation run.
type RunReport struct {
	// Roots are the files and directories the run was started on.
	Roots []string `json:"roots"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// DryRun is true when files were analyzed but never written.
	DryRun bool `json:"dry_run"`

	// Pages holds one result per discovered file, in discovery order.
	Pages []*PageResult `json:"pages"`

	// Cancelled is true when the run stopped before every file was processed.
	Cancelled bool `json:"cancelled,omitempty"`
}

// Summary holds totals derived from the pages of a RunReport.
type Summary struct {
	Files        int `json:"files"`
	FilesChanged int `json:"files_changed"`
	FilesSkipped int `json:"files_skipped"`
	FilesFailed  int `json:"files_failed"`
	Links        int `json:"links"`
	Matched      int `json:"matched"`
	Modified     int `json:"modified"`
}

// NewRunReport creates a report for the given roots starting now.
func NewRunReport(roots []string, dryRun bool) *RunReport {
	return &RunReport{
		Roots:     roots,
		StartedAt: time.Now(),
		DryRun:    dryRun,
		Pages:     make([]*PageResult, 0),
	}
}

// Summary computes totals across all pages. Nil pages are ignored.
func (r *RunReport) Summary() Summary {
	var s Summary
	for _, p := range r.Pages {
		if p == nil {
			continue
		}
		s.Files++
		switch {
		case p.Failed():
			s.FilesFailed++
		case p.Skipped != "":
			s.FilesSkipped++
		case p.Changed():
			s.FilesChanged++
		}
		s.Links += p.Links
		s.Matched += p.Matched
		s.Modified += p.Modified
	}
	return s
}

// HasFailures reports whether any page failed.
func (r *RunReport) HasFailures() bool {
	for _, p := range r.Pages {
		if p != nil && p.Failed() {
			return true
		}
	}
	return false
}

// ChangedPages returns the pages that had at least one link modified.
func (r *RunReport) ChangedPages() []*PageResult {
	out := make([]*PageResult, 0)
	for _, p := range r.Pages {
		if p != nil && p.Changed() {
			out = append(out, p)
		}
	}
	return out
}

// FailedPages returns the pages that failed.
func (r *RunReport) FailedPages() []*PageResult {
	out := make([]*PageResult, 0)
	for _, p := range r.Pages {
		if p != nil && p.Failed() {
			out = append(out, p)
		}
	}
	return out
}
