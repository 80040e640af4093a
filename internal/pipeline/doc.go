// Package pipeline carries HTML files through the annotation steps.
//
// Each file is processed by a Pipeline of Steps:
//
//	read -> sniff -> parse -> annotate -> write
//
// A step can finish the work early (for example when a file is not HTML or
// no link changed), in which case the remaining steps are not run. The
// BatchProcessor runs one pipeline per file, with a bounded number of files
// in flight, using errgroup.
package pipeline
