package model

import "time"

type UserQuestion struct {
	Question       string `json:"question"`
	ModuleContext  string `json:"module_context"`
	ChapterContext string `json:"chapter_context"`
	SelectedText   string `json:"selected_text"`
}

type ChatResponse struct {
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	Confidence     float64   `json:"confidence"`
	GroundedInBook bool      `json:"grounded_in_book"`
	Timestamp      time.Time `json:"timestamp"`
}
