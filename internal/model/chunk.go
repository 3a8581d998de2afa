package model

type ContentChunk struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Module     string `json:"module"`
	Chapter    string `json:"chapter"`
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
}
