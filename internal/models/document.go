package models

// Document is the text of one tender document as produced by a text source.
type Document struct {
	Source  string
	Title   string
	Content string
	Pages   int
	Method  string // "pdf-text" | "html" | "text"
}
