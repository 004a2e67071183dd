// Package scheduler runs delayed escalation checks over asynq. Each crisis
// gets a check enqueued at creation; the handler re-arms itself until the
// crisis is covered or closed, so Redis carries the timer state across
// restarts.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEscalationCheck = "crisis.escalation.check"

type EscalationCheckPayload struct {
	CrisisID string `json:"crisisId"`
}

func NewEscalationCheckTask(payload EscalationCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEscalationCheck, data), nil
}

func ParseEscalationCheckPayload(task *asynq.Task) (EscalationCheckPayload, error) {
	var payload EscalationCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EscalationCheckPayload{}, err
	}
	return payload, nil
}
