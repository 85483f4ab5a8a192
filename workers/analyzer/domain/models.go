package domain

import (
	"encoding/json"
	"strconv"
)

// PageUnitMessage is one page of one submission, as dispatched by the
// orchestrator. Token resumes the paused branch once the page is handled.
type PageUnitMessage struct {
	ID          string `json:"id"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	PageIndex   int    `json:"page_index"`
	SingleImage bool   `json:"single_image,omitempty"`
	Token       string `json:"token"`
}

// BasePageKey is where the page image lives and where both per-page results
// hang: {base}/ai/output.json and {base}/human/output.json.
func (m PageUnitMessage) BasePageKey() string {
	return "wip/" + m.ID + "/" + strconv.Itoa(m.PageIndex) + ".png"
}

// ProcessKey is the object the analysis service reads: the original upload
// for a single image, the rasterized page otherwise.
func (m PageUnitMessage) ProcessKey() string {
	if m.SingleImage {
		return m.Key
	}
	return m.BasePageKey()
}

// ResumeMessage is sent to the orchestrator's callback queue to resume the
// paused branch.
type ResumeMessage struct {
	Token  string          `json:"token"`
	Output json.RawMessage `json:"output"`
}

// TrivialCompletion is the resume payload for a page that needed no human
// review.
var TrivialCompletion = json.RawMessage(`{"all":"done"}`)
