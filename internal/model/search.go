package model

type SearchQuery struct {
	Query        string `json:"query"`
	ModuleFilter string `json:"module_filter"`
	Limit        int    `json:"limit"`
}

type SearchResult struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Module    string  `json:"module"`
	Chapter   string  `json:"chapter"`
	Relevance float64 `json:"relevance"`
}
