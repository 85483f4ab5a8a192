package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
)

func mockS3Middleware(output interface{}, err error) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(
			middleware.FinalizeMiddlewareFunc("MockMiddleware", func(context.Context, middleware.FinalizeInput, middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				return middleware.FinalizeOutput{
					Result: output,
				}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

func mockS3Client(output interface{}, err error) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.UsePathStyle = true
		o.APIOptions = append(o.APIOptions, mockS3Middleware(output, err))
	})
}

func TestS3Repository_Exists(t *testing.T) {
	repo := NewS3Repository(mockS3Client(&s3.HeadObjectOutput{}, nil))

	exists, err := repo.Exists(context.TODO(), "docs", "wip/abc123/0.png/ai/output.json")

	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestS3Repository_Exists_NotFound(t *testing.T) {
	repo := NewS3Repository(mockS3Client(nil, &types.NotFound{}))

	exists, err := repo.Exists(context.TODO(), "docs", "wip/abc123/0.png/ai/output.json")

	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestS3Repository_Exists_Error(t *testing.T) {
	repo := NewS3Repository(mockS3Client(nil, errors.New("access denied")))

	_, err := repo.Exists(context.TODO(), "docs", "wip/abc123/0.png/ai/output.json")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to probe")
}

func TestS3Repository_Put(t *testing.T) {
	repo := NewS3Repository(mockS3Client(&s3.PutObjectOutput{}, nil))

	err := repo.Put(context.TODO(), "docs", "complete/form.pdf-abc123/output.csv", []byte("page 1,-,-\n"), "text/csv")

	assert.NoError(t, err)
}
