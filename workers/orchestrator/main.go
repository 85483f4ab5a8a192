package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/config"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/repositories"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/runtime"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/services"
)

func main() {
	log.Println("Orchestrator Worker starting...")

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

	sqsRepo := repositories.NewSQSRepository(sqs.NewFromConfig(awsCfg))
	s3Repo := repositories.NewS3Repository(s3.NewFromConfig(awsCfg))
	uploadsRepo := repositories.NewUploadsRepository(dynamodb.NewFromConfig(awsCfg), cfg.UploadsTable)
	splitterRepo := repositories.NewSplitterRepository(lambda.NewFromConfig(awsCfg), cfg.SplitterFunction)

	registry := runtime.NewRegistry()
	aggregator := services.NewAggregatorService(s3Repo)
	machine := services.NewMachineService(splitterRepo, sqsRepo, uploadsRepo, registry, aggregator, cfg.PageQueueURL)

	callbacks := services.NewCallbackService(sqsRepo, registry, cfg.CallbackQueueURL)
	go callbacks.Start(ctx)

	kickoff := services.NewKickoffService(sqsRepo, machine, cfg.UploadQueueURL)
	kickoff.Start(ctx)
}
