package model

// Document is a single retrieval result or ingestion unit. Instances are
// built fresh per query or per fetched source item and never mutated after
// construction; only the embedding plus metadata persist in the vector store.
type Document struct {
	Title      string  `json:"title"`
	Author     string  `json:"author,omitempty"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// RawDocument is one title/author/content triple produced by a document
// source for a single ingestion run, before embedding.
type RawDocument struct {
	Title   string
	Author  string
	Content string
}
