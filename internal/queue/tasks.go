package queue

const (
	TypeNarrationProcess = "narration:process"
)

// QueueNarrations isolates the heavyweight narration tasks from anything
// else sharing the Redis instance.
const QueueNarrations = "narrations"

type NarrationProcessPayload struct {
	JobID string `json:"job_id"`
}
