package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// SplitterRepository invokes the external rasterizer function, which renders
// every page of a document to wip/{id}/{page}.png and replies with the page
// count as a quoted number.
type SplitterRepository struct {
	client       LambdaAPI
	functionName string
}

func NewSplitterRepository(client LambdaAPI, functionName string) *SplitterRepository {
	return &SplitterRepository{
		client:       client,
		functionName: functionName,
	}
}

type splitRequest struct {
	Bucket            string `json:"bucket"`
	OriginalUploadPDF string `json:"original_upload_pdf"`
	ID                string `json:"id"`
	CurPageNumber     string `json:"cur_page_number"`
}

func (r *SplitterRepository) SplitDocument(ctx context.Context, bucket, key, id string) (int, error) {
	payload, err := json.Marshal(splitRequest{
		Bucket:            bucket,
		OriginalUploadPDF: key,
		ID:                id,
		CurPageNumber:     "0",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal splitter request: %w", err)
	}

	output, err := r.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: &r.functionName,
		Payload:      payload,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to invoke splitter for %s: %w", key, err)
	}

	count, err := strconv.Atoi(strings.ReplaceAll(string(output.Payload), `"`, ""))
	if err != nil {
		return 0, fmt.Errorf("splitter returned unparseable page count %q: %w", output.Payload, err)
	}
	return count, nil
}
