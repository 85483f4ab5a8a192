package domain

import (
	"encoding/json"
	"strconv"
)

// S3Event is the object-created notification delivered on the upload queue.
type S3Event struct {
	Records []S3EventRecord `json:"Records"`
}

func ParseS3Event(body string) (S3Event, error) {
	var event S3Event
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return S3Event{}, err
	}
	return event, nil
}

type S3EventRecord struct {
	S3 S3Entity `json:"s3"`
}

type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

type S3Bucket struct {
	Name string `json:"name"`
}

type S3Object struct {
	Key string `json:"key"`
}

// Submission is one observed upload. Immutable once created.
type Submission struct {
	ID        string
	Bucket    string
	Key       string
	Extension string
}

// PageUnit is the per-page unit of parallel work. SingleImage marks the
// synthetic unit created when the upload is already a page image rather than
// a document.
type PageUnit struct {
	PageIndex   int
	SingleImage bool
}

// BasePageKey is the object key of a page image inside the working prefix.
// Both per-page results hang off it: {base}/ai/output.json and
// {base}/human/output.json.
func (s Submission) BasePageKey(page int) string {
	return WorkingPrefix + s.ID + "/" + strconv.Itoa(page) + ".png"
}

// PageUnitMessage is the unit-of-work message sent to the analyzer, one per
// page, carrying the continuation token that resumes this branch.
type PageUnitMessage struct {
	ID          string `json:"id"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	PageIndex   int    `json:"page_index"`
	SingleImage bool   `json:"single_image,omitempty"`
	Token       string `json:"token"`
}

// ResumeMessage is delivered on the callback queue to resume a paused
// branch. The orchestrator does not inspect Output beyond handing it back to
// the waiting branch; both the trivial automated payload and the human-path
// payload travel through it.
type ResumeMessage struct {
	Token  string          `json:"token"`
	Output json.RawMessage `json:"output"`
}
