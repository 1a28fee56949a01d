package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openoj/judge-api/internal/types"
)

type Task struct {
	Model
	Type      types.TaskType
	Title     string
	FileNames datatypes.JSONSlice[string] `gorm:"column:file_names"`
	Visible   bool
}

func (Task) TableName() string {
	return "tasks"
}

func (t Task) GetID() uuid.UUID {
	return t.ID
}

// Number of source files a submission against this task carries
func (t Task) ExpectedFileCount() int {
	return t.Type.ExpectedFileCount(t.FileNames)
}
