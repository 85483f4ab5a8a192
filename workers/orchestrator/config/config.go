package config

import (
	"fmt"
	"os"
)

type Config struct {
	UploadQueueURL   string
	PageQueueURL     string
	CallbackQueueURL string
	UploadsTable     string
	SplitterFunction string
	AWSRegion        string
}

func Load() (*Config, error) {
	cfg := &Config{
		UploadQueueURL:   os.Getenv("UPLOAD_QUEUE_URL"),
		PageQueueURL:     os.Getenv("PAGE_QUEUE_URL"),
		CallbackQueueURL: os.Getenv("CALLBACK_QUEUE_URL"),
		UploadsTable:     os.Getenv("UPLOADS_TABLE"),
		SplitterFunction: os.Getenv("SPLITTER_FUNCTION"),
		AWSRegion:        os.Getenv("AWS_REGION"),
	}

	if cfg.UploadQueueURL == "" {
		return nil, fmt.Errorf("UPLOAD_QUEUE_URL is required")
	}
	if cfg.PageQueueURL == "" {
		return nil, fmt.Errorf("PAGE_QUEUE_URL is required")
	}
	if cfg.CallbackQueueURL == "" {
		return nil, fmt.Errorf("CALLBACK_QUEUE_URL is required")
	}
	if cfg.UploadsTable == "" {
		return nil, fmt.Errorf("UPLOADS_TABLE is required")
	}
	if cfg.SplitterFunction == "" {
		return nil, fmt.Errorf("SPLITTER_FUNCTION is required")
	}

	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}

	return cfg, nil
}
