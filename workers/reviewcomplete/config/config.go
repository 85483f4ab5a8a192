package config

import (
	"fmt"
	"os"
)

type Config struct {
	InputQueueURL    string
	CallbackQueueURL string
	CallbackTable    string
	AWSRegion        string
}

func Load() (*Config, error) {
	cfg := &Config{
		InputQueueURL:    os.Getenv("INPUT_QUEUE_URL"),
		CallbackQueueURL: os.Getenv("CALLBACK_QUEUE_URL"),
		CallbackTable:    os.Getenv("CALLBACK_TABLE"),
		AWSRegion:        os.Getenv("AWS_REGION"),
	}

	if cfg.InputQueueURL == "" {
		return nil, fmt.Errorf("INPUT_QUEUE_URL is required")
	}
	if cfg.CallbackQueueURL == "" {
		return nil, fmt.Errorf("CALLBACK_QUEUE_URL is required")
	}
	if cfg.CallbackTable == "" {
		return nil, fmt.Errorf("CALLBACK_TABLE is required")
	}

	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}

	return cfg, nil
}
