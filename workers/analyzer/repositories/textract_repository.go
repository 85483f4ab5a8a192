package repositories

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// TextractRepository wraps forms analysis with human-review escalation
// enabled under a fixed content-safety policy.
type TextractRepository struct {
	client            TextractAPI
	flowDefinitionARN string
}

func NewTextractRepository(client TextractAPI, flowDefinitionARN string) *TextractRepository {
	return &TextractRepository{
		client:            client,
		flowDefinitionARN: flowDefinitionARN,
	}
}

// AnalyzeForms analyzes one page image. The second return reports whether
// the service activated the human loop: a non-empty activation reason list
// means a reviewer will also look at this page.
func (r *TextractRepository) AnalyzeForms(ctx context.Context, bucket, key, loopName string) ([]types.Block, bool, error) {
	output, err := r.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
		HumanLoopConfig: &types.HumanLoopConfig{
			HumanLoopName:     aws.String(loopName),
			FlowDefinitionArn: aws.String(r.flowDefinitionARN),
			DataAttributes: &types.HumanLoopDataAttributes{
				ContentClassifiers: []types.ContentClassifier{
					types.ContentClassifierFreeOfPersonallyIdentifiableInformation,
					types.ContentClassifierFreeOfAdultContent,
				},
			},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to analyze s3://%s/%s: %w", bucket, key, err)
	}

	escalated := output.HumanLoopActivationOutput != nil &&
		len(output.HumanLoopActivationOutput.HumanLoopActivationReasons) != 0
	return output.Blocks, escalated, nil
}
