package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hookchat/hookchat/pkg/channels"
	"github.com/hookchat/hookchat/pkg/config"
	"github.com/hookchat/hookchat/pkg/logger"
	"github.com/hookchat/hookchat/pkg/webhook"
)

var version = "dev"

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "hookchat",
		Short: "Chat UI that relays messages to an automation webhook",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel("debug")
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd(), sendCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadRelay() (channels.Relay, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	fallbacks := cfg.WebhookFallbacks()
	if len(fallbacks) > 0 {
		return webhook.NewFallbackClient(cfg.WebhookURL(), fallbacks), cfg, nil
	}
	return webhook.NewClient(cfg.WebhookURL()), cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web chat UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			relay, cfg, err := loadRelay()
			if err != nil {
				return err
			}
			if !cfg.Channels.WebChat.Enabled {
				return fmt.Errorf("webchat channel is disabled in config")
			}

			channel := channels.NewWebChatChannel(cfg.Channels.WebChat, relay)
			if err := channel.Start(cmd.Context()); err != nil {
				return fmt.Errorf("starting webchat: %w", err)
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			logger.InfoCF("main", "Shutting down", nil)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return channel.Stop(ctx)
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Relay a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message must not be empty")
			}

			relay, _, err := loadRelay()
			if err != nil {
				return err
			}

			reply, err := relay.Ask(cmd.Context(), message)
			if err != nil {
				if f, ok := webhook.AsFailure(err); ok && f.Recoverable() {
					reply = webhook.FallbackReply
				} else {
					return err
				}
			}

			fmt.Println(reply)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hookchat version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("hookchat " + version)
		},
	}
}
