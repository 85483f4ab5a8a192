package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// StatusCompleted is the only human-loop state that carries an answer;
	// every other state is acknowledged as a no-op.
	StatusCompleted = "Completed"

	// FormsAnswerKey is the answer-content entry holding the reviewed forms
	// graph.
	FormsAnswerKey = "AWS/Textract/AnalyzeDocument/Forms/V1"
)

// HumanLoopEvent is the "human loop status changed" notification delivered
// on the input queue.
type HumanLoopEvent struct {
	Detail HumanLoopDetail `json:"detail"`
}

type HumanLoopDetail struct {
	HumanLoopStatus string          `json:"humanLoopStatus"`
	HumanLoopOutput HumanLoopOutput `json:"humanLoopOutput"`
}

type HumanLoopOutput struct {
	OutputS3URI string `json:"outputS3Uri"`
}

// ReviewAnswer is the answer blob the review service writes to object
// storage when a loop completes.
type ReviewAnswer struct {
	HumanLoopName string        `json:"humanLoopName"`
	InputContent  InputContent  `json:"inputContent"`
	HumanAnswers  []HumanAnswer `json:"humanAnswers"`
}

type InputContent struct {
	AIServiceRequest AIServiceRequest `json:"aiServiceRequest"`
}

type AIServiceRequest struct {
	Document AnalyzedDocument `json:"document"`
}

type AnalyzedDocument struct {
	S3Object AnalyzedS3Object `json:"s3Object"`
}

type AnalyzedS3Object struct {
	Name string `json:"name"`
}

type HumanAnswer struct {
	AnswerContent map[string]json.RawMessage `json:"answerContent"`
}

// AnalyzedObjectKey is the object the original analysis ran on.
func (a ReviewAnswer) AnalyzedObjectKey() string {
	return a.InputContent.AIServiceRequest.Document.S3Object.Name
}

// FormsAnswer returns the reviewed forms graph from the first answer.
func (a ReviewAnswer) FormsAnswer() (json.RawMessage, bool) {
	if len(a.HumanAnswers) == 0 {
		return nil, false
	}
	raw, ok := a.HumanAnswers[0].AnswerContent[FormsAnswerKey]
	return raw, ok
}

// ResumeMessage is sent to the orchestrator's callback queue to resume the
// paused branch.
type ResumeMessage struct {
	Token  string          `json:"token"`
	Output json.RawMessage `json:"output"`
}

// HumanCompletion is the resume payload for a branch whose page went through
// review.
type HumanCompletion struct {
	IncludesHuman string `json:"includes_human"`
	OutputDest    string `json:"output_dest"`
	Bucket        string `json:"bucket"`
	ID            string `json:"id"`
	Key           string `json:"key"`
}

// ParseS3URI splits an s3://bucket/key URI.
func ParseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	slash := strings.Index(trimmed, "/")
	if slash < 0 || slash == len(trimmed)-1 {
		return "", "", fmt.Errorf("s3 uri %q has no object key", uri)
	}
	return trimmed[:slash], trimmed[slash+1:], nil
}
