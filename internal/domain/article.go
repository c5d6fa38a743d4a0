package domain

import "time"

// SearchResult is one ranked hit returned by the retrieval service.
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Evidence is the extracted text of a single source page.
type Evidence struct {
	URL   string
	Title string
	Text  string
}

// Section holds the research and the final prose written under one header.
type Section struct {
	Header  string
	Bullets string
	Prose   string
}

// Document is everything the assembler needs to render one article.
type Document struct {
	Topic       string
	Title       string
	Metadata    string
	Banner      string
	MiddleImage string
	Intro       string
	Outline     []string
	Sections    []Section
}

// Sampling carries the generation parameters shared by every stage.
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// GenerationRequest is a single prompt sent to the text-generation service.
type GenerationRequest struct {
	Model    string
	Prompt   string
	Sampling Sampling
}

// ImageHandle points at a downloadable image returned by an image search.
type ImageHandle struct {
	ID  string
	URL string
}

// ProcessingStatus enumerates topic run milestones.
type ProcessingStatus string

const (
	StatusPublished ProcessingStatus = "published"
	StatusFailed    ProcessingStatus = "failed"
	StatusSkipped   ProcessingStatus = "skipped"
)

// PublishedArticle is persisted to the ledger so that topics are written once.
type PublishedArticle struct {
	RunID       string
	Topic       string
	Title       string
	Link        string
	Category    []string
	PublishedAt time.Time
}
