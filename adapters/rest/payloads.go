package rest

import "taskflow/core"

type statusIn struct {
	Status core.TaskStatus `json:"status"`
}

type progressIn struct {
	Percentage int `json:"percentage"`
}

type stopTimerIn struct {
	ElapsedMs int64 `json:"elapsedMs"`
}

type commentIn struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type batchStatusIn struct {
	TaskIDs []string        `json:"taskIds"`
	Status  core.TaskStatus `json:"status"`
}

type batchPriorityIn struct {
	TaskIDs  []string      `json:"taskIds"`
	Priority core.Priority `json:"priority"`
}

type batchTagsIn struct {
	TaskIDs []string `json:"taskIds"`
	Tags    []string `json:"tags"`
}

type batchDeleteIn struct {
	TaskIDs []string `json:"taskIds"`
}
