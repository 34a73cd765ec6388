package usecase

import (
	"fmt"

	"github.com/google/uuid"
)

// Token tags the results of one benchmark within an execution sequence.
type Token struct {
	SequenceID string `json:"sequence_id"`
	Ordinal    int    `json:"ordinal"` // 1-based position in load order
	Total      int    `json:"total"`
}

// Key returns the correlation key of a benchmark within the sequence.
// Repeated invocations with the same sequence id produce the same key.
func (t Token) Key(uniqueName string) string {
	return fmt.Sprintf("%s/%s", t.SequenceID, uniqueName)
}

// ExecutionSynchronizer holds the execution sequence id of one run.
type ExecutionSynchronizer struct {
	sequenceID string
}

// NewExecutionSynchronizer uses sequenceID, or generates a new one when empty.
func NewExecutionSynchronizer(sequenceID string) *ExecutionSynchronizer {
	if sequenceID == "" {
		sequenceID = uuid.New().String()
	}
	return &ExecutionSynchronizer{sequenceID: sequenceID}
}

// SequenceID returns the stable sequence id.
func (s *ExecutionSynchronizer) SequenceID() string {
	return s.sequenceID
}

// Token returns the token of the benchmark at ordinal (1-based) out of total.
func (s *ExecutionSynchronizer) Token(ordinal, total int) Token {
	return Token{SequenceID: s.sequenceID, Ordinal: ordinal, Total: total}
}
