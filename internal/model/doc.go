// Package model defines the result structures shared by the pipeline,
// the report writers and the CLI.
//
// This package contains the following main types:
//   - PageResult: the outcome of annotating a single HTML file
//   - RunReport: the aggregate of one annotation run over a set of roots
//
// The models are serializable to JSON for report output.
package model
