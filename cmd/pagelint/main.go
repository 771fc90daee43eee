// Package main provides the entry point for the pagelint CLI.
//
// Pagelint audits web pages against configurable SEO, GEO, voice-search, and
// brand rules, and files novel findings on a task-tracker board.
//
// Usage:
//
//	pagelint audit <site-id>
//	pagelint audit --url https://www.example.com/spa <site-id>
//
// See --help for all available options.
package main

// main is the entry point for pagelint.
func main() {
	Execute()
}
