package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/correlation"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/reviewcomplete/config"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/reviewcomplete/repositories"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/reviewcomplete/services"
)

func main() {
	log.Println("Review Completion Worker starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	sqsRepo := repositories.NewSQSRepository(sqs.NewFromConfig(awsCfg), cfg.InputQueueURL, cfg.CallbackQueueURL)
	s3Repo := repositories.NewS3Repository(s3.NewFromConfig(awsCfg))
	tokens := correlation.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.CallbackTable)

	completion := services.NewCompletionService(sqsRepo, s3Repo, tokens, sqsRepo)
	completion.Start(ctx)
}
