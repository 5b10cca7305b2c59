package models

// Metadata describes where a corpus document came from.
type Metadata struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Category   string `json:"category"`
	SourceType string `json:"source_type"`
	AddedDate  string `json:"added_date"`
}

// Document is one entry of the curated corpus. Immutable once stored;
// the corpus is only ever replaced wholesale on reinitialization.
type Document struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// RetrievedMatch is a document returned by semantic retrieval together
// with its cosine similarity to the query. Produced per query, never persisted.
type RetrievedMatch struct {
	ID         string
	Text       string
	Metadata   Metadata
	Similarity float32
}

// Source is the citation projection of a retrieved document.
type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Similarity float32 `json:"similarity"`
}

// ChatResult is the outcome of one chat request.
type ChatResult struct {
	Response    string   `json:"response"`
	Sources     []Source `json:"sources"`
	ContextUsed bool     `json:"context_used"`
	Query       string   `json:"query"`
	NumSources  int      `json:"num_sources"`
}

// CorpusStats summarizes the document store.
type CorpusStats struct {
	TotalDocuments   int            `json:"total_documents"`
	TotalCharacters  int            `json:"total_characters"`
	TotalWords       int            `json:"total_words"`
	AverageDocLength int            `json:"average_doc_length"`
	Categories       map[string]int `json:"categories"`
	Sources          int            `json:"sources"`
}
