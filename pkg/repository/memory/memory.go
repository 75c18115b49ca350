package memory

import (
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository for development and tests
type Memory struct {
	task *taskRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		task: newTaskRepository(),
	}
}

func (m *Memory) Task() interfaces.TaskRepository {
	return m.task
}

func (m *Memory) Close() error {
	return nil
}
