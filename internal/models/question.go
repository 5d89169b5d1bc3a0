package models

import "strings"

type ReflectionQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

func (q ReflectionQuestion) IsBlank() bool {
	return strings.TrimSpace(q.Question) == ""
}
