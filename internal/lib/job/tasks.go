package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskGenerateAttestation pre-generates the link of a position.
	// Asynq uses task type strings to route to handlers.
	TaskGenerateAttestation = "attestation:generate"

	// TaskAttestationEmail mails the attestation link of a position.
	TaskAttestationEmail = "email:attestation"
)

// AttestationPayload identifies a position of an event.
type AttestationPayload struct {
	EventID    int64 `json:"event_id"`
	PositionID int64 `json:"position_id"`
}

// AttestationEmailPayload is the payload of TaskAttestationEmail.
// An empty To sends to the attendee email of the position.
type AttestationEmailPayload struct {
	AttestationPayload
	To string `json:"to,omitempty"`
}

// NewGenerateAttestationTask constructs the pre-generation task.
//
// The generator is slow, so the task gets a generous timeout and a few retries.
func NewGenerateAttestationTask(eventID, positionID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(AttestationPayload{EventID: eventID, PositionID: positionID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskGenerateAttestation,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(2*time.Minute),
	), nil
}

// NewAttestationEmailTask constructs the attestation mail task.
func NewAttestationEmailTask(eventID, positionID int64, to string) (*asynq.Task, error) {
	payload, err := json.Marshal(AttestationEmailPayload{
		AttestationPayload: AttestationPayload{EventID: eventID, PositionID: positionID},
		To:                 to,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAttestationEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(2*time.Minute),
	), nil
}
