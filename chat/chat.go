package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/phizone-bot/bot"
	"github.com/onnwee/phizone-bot/config"
)

// StartBot connects to Twitch IRC for the configured channel and answers
// PhiZone commands until ctx is cancelled. It blocks for the lifetime of the
// connection.
func StartBot(ctx context.Context, cfg *config.Config, handler *bot.Handler) error {
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Info("twitch creds not set; chat front end disabled", slog.Any("err", err))
		return nil
	}
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		cmdCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		reply, handled := handler.Dispatch(cmdCtx, msg.User.ID, msg.Message)
		if !handled || reply == "" {
			return
		}
		// Twitch IRC has no real line breaks; send each paragraph separately so
		// multi-block replies stay legible.
		for _, block := range strings.Split(reply, "\n\n") {
			line := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
			if line == "" {
				continue
			}
			client.Reply(msg.Channel, msg.ID, line)
		}
		slog.Debug("command answered", slog.String("user", msg.User.Name), slog.String("message", msg.Message))
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := client.Disconnect(); err != nil {
			slog.Warn("twitch chat disconnect", slog.Any("err", err))
		}
		close(done)
	}()

	client.Join(cfg.TwitchChannel)
	slog.Info("joining twitch chat", slog.String("channel", cfg.TwitchChannel), slog.String("prefix", cfg.CommandPrefix))
	if err := client.Connect(); err != nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	<-done
	return nil
}
