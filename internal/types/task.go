package types

type TaskType string

const (
	// Single source file submissions
	TaskTypeNormal TaskType = "normal"
	// Submissions made of the task's declared file set
	TaskTypeMultiFile TaskType = "multi_file"
)

// ExpectedFileCount is the number of code artifact files a submission for
// a task of this type carries. fileNames is the task's declared file set.
func (t TaskType) ExpectedFileCount(fileNames []string) int {
	if t == TaskTypeNormal {
		return 1
	}
	return len(fileNames)
}
