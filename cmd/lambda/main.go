// HookChat - AWS Lambda serverless handler
// Receives a chat message via API Gateway, relays it to the configured
// webhook synchronously and returns the normalized reply.
//
// Environment variables:
//   HOOKCHAT_CONFIG_JSON  - Full config JSON (alternative to config file)
//   HOOKCHAT_CONFIG_PATH  - Config file path (default: config.json)
//   HOOKCHAT_WEBHOOK_URL  - Webhook endpoint (overrides config)

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hookchat/hookchat/pkg/channels"
	"github.com/hookchat/hookchat/pkg/config"
	"github.com/hookchat/hookchat/pkg/logger"
	"github.com/hookchat/hookchat/pkg/webhook"
)

var (
	relay    channels.Relay
	initOnce sync.Once
	initErr  error
)

func initialize() error {
	initOnce.Do(func() {
		initErr = doInit()
	})
	return initErr
}

func doInit() error {
	cfg, err := loadLambdaConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	fallbacks := cfg.WebhookFallbacks()
	if len(fallbacks) > 0 {
		relay = webhook.NewFallbackClient(cfg.WebhookURL(), fallbacks)
	} else {
		relay = webhook.NewClient(cfg.WebhookURL())
	}

	logger.InfoCF("lambda", "Initialized", map[string]interface{}{
		"endpoint":  cfg.WebhookURL(),
		"fallbacks": len(fallbacks),
	})
	return nil
}

func loadLambdaConfig() (*config.Config, error) {
	configPath := os.Getenv("HOOKCHAT_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	return config.LoadConfig(configPath)
}

type inboundMessage struct {
	Message string `json:"message"`
}

type outboundReply struct {
	Message string `json:"message"`
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(v)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := initialize(); err != nil {
		logger.ErrorCF("lambda", "Init error", map[string]interface{}{"error": err.Error()})
		return respond(http.StatusInternalServerError, map[string]string{"error": "initialization failed"}), nil
	}

	var in inboundMessage
	if err := json.Unmarshal([]byte(request.Body), &in); err != nil || in.Message == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "body must be {\"message\": \"...\"}"}), nil
	}

	reply, err := relay.Ask(ctx, in.Message)
	if err != nil {
		if f, ok := webhook.AsFailure(err); ok && f.Recoverable() {
			reply = webhook.FallbackReply
		} else {
			logger.ErrorCF("lambda", "Webhook exchange failed", map[string]interface{}{"error": err.Error()})
			return respond(http.StatusBadGateway, map[string]string{"error": err.Error()}), nil
		}
	}

	return respond(http.StatusOK, outboundReply{Message: reply}), nil
}

func main() {
	lambda.Start(handler)
}
