package models

// Task is an action item, optionally extracted from note text.
type Task struct {
	Description  string  `json:"description" yaml:"description"`
	DueDate      *string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Owner        *string `json:"owner,omitempty" yaml:"owner,omitempty"`
	SourceNoteID *string `json:"source_note_id,omitempty" yaml:"source_note_id,omitempty"`
	Completed    bool    `json:"completed" yaml:"completed"`
}

// TaskExtraction wraps the tasks found in a piece of text.
type TaskExtraction struct {
	Tasks []Task `json:"tasks" yaml:"tasks"`
}
