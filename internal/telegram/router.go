package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
	"go.uber.org/zap"
)

const (
	callbackTrackPrefix = "track_"
	callbackRefreshURLs = "refresh_urls"

	maxBulkURLs = 20
)

// Menu buttons shown by /start. Pressing one sends its text as a message.
const (
	buttonQuickShorten = "🔗 Quick Shorten"
	buttonBulkShorten  = "📚 Bulk Shorten"
	buttonCustomAlias  = "🎯 Custom Alias"
	buttonTrackURL     = "📊 Track URL"
	buttonMyURLs       = "📋 My URLs"
	buttonHelp         = "ℹ️ Help"
)

const (
	textHelp = "*Available commands:*\n\n" +
		"/shorten `<url>` \\- shorten one URL\n" +
		"/custom `<url> <alias>` \\- shorten with your own alias\n" +
		"/bulk `<url> <url> …` \\- shorten several URLs at once\n" +
		"/track `<alias>` \\- view click statistics\n" +
		"/urls \\- list your short links\n" +
		"/help \\- show this message"
	textGenericError = "❌ An error occurred. Please try again."
	textUnknown      = "🤔 I did not get that. Send /help to see what I can do."
	textTrackUsage   = "❌ Usage: /track <alias>\nExample: /track my-link"
	textCustomUsage  = "❌ Usage: /custom <url> <alias>\nExample: /custom example.com my-link"
	textAskURL       = "📝 Send me the URL to shorten:"
	textAskBulk      = "📚 Send several URLs separated by spaces or new lines:"
	textAskCustomURL = "🎯 Custom short link\n\nFirst send me the URL you want to shorten:"
	textAskAlias     = "✅ URL received.\n\nNow send your alias: 3 to 32 letters, digits, - or _."
	textInvalidURL   = "❌ Invalid URL format. Please send a valid URL, e.g. https://example.com"
	textInvalidAlias = "❌ Invalid alias. Use 3 to 32 letters, digits, - or _ and avoid reserved words."
	textAliasTaken   = "❌ This alias is already taken. Please choose a different one:"
	textNoURLs       = "❌ No URLs detected. Send several URLs separated by spaces."
	textLinkNotFound = "❌ Link not found: "
)

// Sender is the part of the Telegram API the router needs. *bot.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Shortener creates and lists links on behalf of chat users.
type Shortener interface {
	Shorten(ctx context.Context, req shortener.Request) (*shortener.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*shortener.ShortLink, error)
	EnsureOwner(ctx context.Context, owner *shortener.Owner) (bool, error)
}

// StatsProvider builds link statistics.
type StatsProvider interface {
	Stats(ctx context.Context, alias shortener.Alias) (*analytics.Statistics, error)
}

// Router turns updates into command handlers.
type Router struct {
	links    Shortener
	stats    StatsProvider
	sessions *SessionStore
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

func NewRouter(
	links Shortener,
	stats StatsProvider,
	sessions *SessionStore,
	baseURL string,
	logger *zap.Logger,
) *Router {
	return &Router{
		links:    links,
		stats:    stats,
		sessions: sessions,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// Handle is the bot's default handler.
func (r *Router) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	r.Dispatch(ctx, b, update)
}

// Dispatch routes one update, replying through s.
func (r *Router) Dispatch(ctx context.Context, s Sender, update *models.Update) {
	if update == nil {
		return
	}

	meta := extractUpdateMeta(update)
	r.logger.Debug("telegram update received",
		zap.String("update_type", meta.updateType),
		zap.Int64("user_id", meta.userID),
		zap.Int64("chat_id", meta.chatID),
	)

	switch {
	case update.Message != nil:
		r.ensureOwner(ctx, update.Message.From)
		r.handleMessage(ctx, s, update.Message)
	case update.CallbackQuery != nil:
		r.ensureOwner(ctx, &update.CallbackQuery.From)
		r.handleCallback(ctx, s, update.CallbackQuery)
	}
}

func (r *Router) ensureOwner(ctx context.Context, user *models.User) {
	if user == nil || user.ID == 0 {
		return
	}

	created, err := r.links.EnsureOwner(ctx, &shortener.Owner{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
	if err != nil {
		r.logger.Warn("owner upsert failed", zap.Int64("user_id", user.ID), zap.Error(err))

		return
	}

	if created {
		r.logger.Info("new owner", zap.Int64("user_id", user.ID))
	}
}

func (r *Router) handleMessage(ctx context.Context, s Sender, msg *models.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	chatID := msg.Chat.ID
	ownerID := userID(msg.From)

	if cmd, args, ok := parseCommand(text); ok {
		r.sessions.Clear(chatID)
		r.handleCommand(ctx, s, msg, cmd, args)

		return
	}

	switch text {
	case buttonQuickShorten:
		r.prompt(ctx, s, chatID, Session{Step: StepAwaitURL}, textAskURL)
	case buttonBulkShorten:
		r.prompt(ctx, s, chatID, Session{Step: StepAwaitBulk}, textAskBulk)
	case buttonCustomAlias:
		r.prompt(ctx, s, chatID, Session{Step: StepCustomURL}, textAskCustomURL)
	case buttonTrackURL:
		r.sessions.Clear(chatID)
		r.reply(ctx, s, chatID, esc(textTrackUsage), nil)
	case buttonMyURLs:
		r.sessions.Clear(chatID)
		r.listLinks(ctx, s, chatID, ownerID)
	case buttonHelp:
		r.sessions.Clear(chatID)
		r.reply(ctx, s, chatID, textHelp, nil)
	default:
		r.continueSession(ctx, s, chatID, ownerID, text)
	}
}

func (r *Router) handleCommand(ctx context.Context, s Sender, msg *models.Message, cmd string, args []string) {
	chatID := msg.Chat.ID
	ownerID := userID(msg.From)

	switch cmd {
	case "start":
		r.welcome(ctx, s, chatID, msg.From)
	case "help":
		r.reply(ctx, s, chatID, textHelp, nil)
	case "shorten":
		if len(args) == 0 {
			r.prompt(ctx, s, chatID, Session{Step: StepAwaitURL}, textAskURL)

			return
		}

		r.shorten(ctx, s, chatID, shortener.Request{URL: args[0], OwnerID: ownerID})
	case "custom":
		switch len(args) {
		case 0:
			r.prompt(ctx, s, chatID, Session{Step: StepCustomURL}, textAskCustomURL)
		case 2:
			r.shorten(ctx, s, chatID, shortener.Request{URL: args[0], Alias: shortener.Alias(args[1]), OwnerID: ownerID})
		default:
			r.reply(ctx, s, chatID, esc(textCustomUsage), nil)
		}
	case "track":
		if len(args) != 1 {
			r.reply(ctx, s, chatID, esc(textTrackUsage), nil)

			return
		}

		r.track(ctx, s, chatID, shortener.Alias(args[0]))
	case "urls":
		r.listLinks(ctx, s, chatID, ownerID)
	case "bulk":
		if len(args) == 0 {
			r.prompt(ctx, s, chatID, Session{Step: StepAwaitBulk}, textAskBulk)

			return
		}

		r.bulk(ctx, s, chatID, ownerID, args)
	default:
		r.reply(ctx, s, chatID, esc(textUnknown), nil)
	}
}

// continueSession handles plain text according to the chat's pending flow.
func (r *Router) continueSession(ctx context.Context, s Sender, chatID, ownerID int64, text string) {
	session := r.sessions.Get(chatID)

	switch session.Step {
	case StepAwaitURL:
		r.sessions.Clear(chatID)
		r.shorten(ctx, s, chatID, shortener.Request{URL: text, OwnerID: ownerID})
	case StepAwaitBulk:
		r.sessions.Clear(chatID)
		r.bulk(ctx, s, chatID, ownerID, strings.Fields(text))
	case StepCustomURL:
		formatted, err := shortener.FormatURL(text)
		if err != nil {
			r.reply(ctx, s, chatID, esc(textInvalidURL), nil)

			return
		}

		r.prompt(ctx, s, chatID, Session{Step: StepCustomAlias, URL: formatted}, textAskAlias)
	case StepCustomAlias:
		link, err := r.links.Shorten(ctx, shortener.Request{URL: session.URL, Alias: shortener.Alias(text), OwnerID: ownerID})
		if errors.Is(err, shortener.ErrInvalidAlias) || errors.Is(err, shortener.ErrAliasTaken) {
			// the flow stays open so the user can try another alias
			r.replyShortenError(ctx, s, chatID, err)

			return
		}

		r.sessions.Clear(chatID)

		if err != nil {
			r.replyShortenError(ctx, s, chatID, err)

			return
		}

		r.replyShortened(ctx, s, chatID, link)
	default:
		r.reply(ctx, s, chatID, esc(textUnknown), nil)
	}
}

func (r *Router) welcome(ctx context.Context, s Sender, chatID int64, from *models.User) {
	name := "there"
	if from != nil {
		name = shortener.Owner{Username: from.Username, FirstName: from.FirstName, LastName: from.LastName}.DisplayName()
	}

	text := "👋 " + bold("Welcome to the URL Shortener Bot, "+name+"!") + "\n\n" + esc("Choose an option:")

	r.reply(ctx, s, chatID, text, &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: buttonQuickShorten}, {Text: buttonBulkShorten}},
			{{Text: buttonCustomAlias}, {Text: buttonTrackURL}},
			{{Text: buttonMyURLs}, {Text: buttonHelp}},
		},
		ResizeKeyboard: true,
	})
}

func (r *Router) prompt(ctx context.Context, s Sender, chatID int64, session Session, text string) {
	r.sessions.Set(chatID, session)
	r.reply(ctx, s, chatID, esc(text), nil)
}

func (r *Router) shorten(ctx context.Context, s Sender, chatID int64, req shortener.Request) {
	link, err := r.links.Shorten(ctx, req)
	if err != nil {
		r.replyShortenError(ctx, s, chatID, err)

		return
	}

	r.replyShortened(ctx, s, chatID, link)
}

func (r *Router) replyShortened(ctx context.Context, s Sender, chatID int64, link *shortener.ShortLink) {
	text := "✅ " + bold("URL shortened successfully!") + "\n\n" +
		"🔗 " + bold("Short URL:") + " " + code(ShortURL(r.baseURL, link.Alias)) + "\n" +
		"🎯 " + bold("Original:") + " " + esc(link.OriginalURL)

	r.reply(ctx, s, chatID, text, trackKeyboard(link.Alias, "📊 View Stats"))
}

func (r *Router) replyShortenError(ctx context.Context, s Sender, chatID int64, err error) {
	switch {
	case errors.Is(err, shortener.ErrInvalidURL):
		r.reply(ctx, s, chatID, esc(textInvalidURL), nil)
	case errors.Is(err, shortener.ErrInvalidAlias):
		r.reply(ctx, s, chatID, esc(textInvalidAlias), nil)
	case errors.Is(err, shortener.ErrAliasTaken):
		r.reply(ctx, s, chatID, esc(textAliasTaken), nil)
	default:
		r.logger.Error("shorten failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.reply(ctx, s, chatID, esc(textGenericError), nil)
	}
}

func (r *Router) bulk(ctx context.Context, s Sender, chatID, ownerID int64, inputs []string) {
	if len(inputs) == 0 {
		r.reply(ctx, s, chatID, esc(textNoURLs), nil)

		return
	}

	if len(inputs) > maxBulkURLs {
		inputs = inputs[:maxBulkURLs]
	}

	results := make([]BulkResult, 0, len(inputs))

	for _, input := range inputs {
		link, err := r.links.Shorten(ctx, shortener.Request{URL: input, OwnerID: ownerID})
		if err != nil && !isValidationError(err) {
			r.logger.Error("bulk shorten failed", zap.String("url", input), zap.Error(err))
		}

		results = append(results, BulkResult{Input: input, Link: link, Err: err})
	}

	r.reply(ctx, s, chatID, FormatBulk(results, r.baseURL), nil)
}

func (r *Router) track(ctx context.Context, s Sender, chatID int64, alias shortener.Alias) {
	stats, err := r.stats.Stats(ctx, alias)

	switch {
	case errors.Is(err, shortener.ErrNotFound):
		r.reply(ctx, s, chatID, esc(textLinkNotFound+string(alias)), nil)
	case err != nil:
		r.logger.Error("stats failed", zap.String("alias", string(alias)), zap.Error(err))
		r.reply(ctx, s, chatID, esc(textGenericError), nil)
	default:
		r.reply(ctx, s, chatID, FormatStats(stats, r.baseURL, r.now()), trackKeyboard(alias, "🔄 Refresh Stats"))
	}
}

func (r *Router) listLinks(ctx context.Context, s Sender, chatID, ownerID int64) {
	links, err := r.links.ListByOwner(ctx, ownerID)
	if err != nil {
		r.logger.Error("list links failed", zap.Int64("user_id", ownerID), zap.Error(err))
		r.reply(ctx, s, chatID, esc(textGenericError), nil)

		return
	}

	var markup models.ReplyMarkup
	if len(links) > 0 {
		markup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: "🔄 Refresh", CallbackData: callbackRefreshURLs}},
			},
		}
	}

	r.reply(ctx, s, chatID, FormatLinkList(links, r.baseURL, r.now()), markup)
}

func (r *Router) handleCallback(ctx context.Context, s Sender, query *models.CallbackQuery) {
	chatID := messageChatID(query.Message)
	if chatID == 0 {
		chatID = query.From.ID
	}

	data := strings.TrimSpace(query.Data)
	answer := &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}

	if _, err := s.AnswerCallbackQuery(ctx, answer); err != nil {
		r.logger.Warn("answer callback failed", zap.String("data", data), zap.Error(err))
	}

	if alias, ok := strings.CutPrefix(data, callbackTrackPrefix); ok && alias != "" {
		r.track(ctx, s, chatID, shortener.Alias(alias))

		return
	}

	if data == callbackRefreshURLs {
		r.listLinks(ctx, s, chatID, query.From.ID)

		return
	}

	r.logger.Warn("unknown callback", zap.String("data", data))
}

func (r *Router) reply(ctx context.Context, s Sender, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               text,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}

	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := s.SendMessage(ctx, params); err != nil {
		r.logger.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func trackKeyboard(alias shortener.Alias, label string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: label, CallbackData: callbackTrackPrefix + string(alias)}},
		},
	}
}

// parseCommand splits "/cmd@bot arg1 arg2" into "cmd" and its arguments.
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	cmd, _, _ = strings.Cut(cmd, "@")

	return strings.ToLower(cmd), fields[1:], true
}

func isValidationError(err error) bool {
	return errors.Is(err, shortener.ErrInvalidURL) ||
		errors.Is(err, shortener.ErrInvalidAlias) ||
		errors.Is(err, shortener.ErrAliasTaken)
}
