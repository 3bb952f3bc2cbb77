// Package telegram hosts the bot client, update routing and the chat commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

var ErrMissingToken = errors.New("telegram token is required")

type botRunner interface {
	Start(ctx context.Context)
}

var (
	allowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
	}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		return bot.New(token, options...)
	}
)

// Client owns the long polling loop.
type Client struct {
	bot    botRunner
	logger *zap.Logger
}

// NewClient creates the bot with router as its default handler.
func NewClient(token string, router *Router, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	tgBot, err := createBot(token,
		bot.WithAllowedUpdates(allowedUpdates),
		bot.WithDefaultHandler(router.Handle),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return &Client{
		bot:    tgBot,
		logger: logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	c.logger.Info("starting telegram long polling", zap.Strings("allowed_updates", allowedUpdates))

	c.bot.Start(ctx)

	c.logger.Info("telegram polling stopped")
}

func errorHandler(logger *zap.Logger) bot.ErrorsHandler {
	return func(err error) {
		if err == nil {
			return
		}

		logger.Error("telegram polling error", zap.Error(err))
	}
}

type updateMeta struct {
	userID     int64
	chatID     int64
	updateType string
}

func extractUpdateMeta(update *models.Update) updateMeta {
	switch {
	case update.Message != nil:
		return updateMeta{
			userID:     userID(update.Message.From),
			chatID:     update.Message.Chat.ID,
			updateType: "message",
		}
	case update.CallbackQuery != nil:
		return updateMeta{
			userID:     update.CallbackQuery.From.ID,
			chatID:     messageChatID(update.CallbackQuery.Message),
			updateType: "callback_query",
		}
	default:
		return updateMeta{updateType: "unknown"}
	}
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func messageChatID(msg models.MaybeInaccessibleMessage) int64 {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return 0
		}

		return msg.Message.Chat.ID
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return 0
		}

		return msg.InaccessibleMessage.Chat.ID
	default:
		return 0
	}
}
