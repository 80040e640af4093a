package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// PageResult is the outcome of processing one HTML file.
type PageResult struct {
	// Path is the file path as discovered, relative or absolute.
	Path string `json:"path"`

	// Title is the text of the page's <title> element, if any.
	Title string `json:"title,omitempty"`

	// Charset is the encoding the page was read in.
	Charset string `json:"charset,omitempty"`

	// Links is the number of <a> elements visited.
	Links int `json:"links"`

	// Matched is the number of external links annotated.
	Matched int `json:"matched"`

	// Modified is the number of matched links whose attributes changed.
	Modified int `json:"modified"`

	// Annotated lists the href of every matched link in document order.
	Annotated []string `json:"annotated,omitempty"`

	// Written is true when the annotated page was written back to disk.
	Written bool `json:"written"`

	// Skipped explains why the file was not processed. Empty when it was.
	Skipped string `json:"skipped,omitempty"`

	// Checksum is the SHA-256 of the file content after processing.
	Checksum string `json:"checksum,omitempty"`

	// Error is the error that stopped processing, if any.
	// It is not serialized directly; ErrorMessage carries its text.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error.
	ErrorMessage string `json:"error,omitempty"`
}

// NewPageResult creates an empty result for the given path.
func NewPageResult(path string) *PageResult {
	return &PageResult{Path: path}
}

// SetError records err on the result.
func (p *PageResult) SetError(err error) {
	p.Error = err
	if err != nil {
		p.ErrorMessage = err.Error()
	}
}

// Failed reports whether processing stopped with an error.
func (p *PageResult) Failed() bool {
	return p.Error != nil || p.ErrorMessage != ""
}

// Changed reports whether processing modified at least one link.
func (p *PageResult) Changed() bool {
	return p.Modified > 0
}

// Skip marks the file as skipped for the given reason.
func (p *PageResult) Skip(reason string) {
	p.Skipped = reason
}

// Checksum returns the hex-encoded SHA-256 of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
