// Package main provides the entry point for the extlink CLI.
//
// extlink post-processes the HTML output of a static site generator. Every
// link pointing to an http:// or https:// address is made to open in a new
// browsing context with target="_blank" and rel="noreferrer nofollow noopener".
//
// Usage:
//
//	extlink annotate [path...]
//	extlink watch [path...]
//
// See --help for all available options.
package main

// main is the entry point for extlink.
func main() {
	Execute()
}
