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
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/correlation"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/analyzer/config"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/analyzer/repositories"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/analyzer/services"
)

func main() {
	log.Println("Analyzer Worker starting...")

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
	textractRepo := repositories.NewTextractRepository(textract.NewFromConfig(awsCfg), cfg.HumanWorkflowARN)
	tokens := correlation.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.CallbackTable)

	analyzer := services.NewAnalyzerService(sqsRepo, textractRepo, s3Repo, tokens, sqsRepo)
	analyzer.Start(ctx)
}
