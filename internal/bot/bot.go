package bot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/nemirov/pulse-bot/internal/ai"
	"github.com/nemirov/pulse-bot/internal/analytics"
	"github.com/nemirov/pulse-bot/internal/models"
	"github.com/nemirov/pulse-bot/internal/search"
	"github.com/nemirov/pulse-bot/internal/sentiment"
	"github.com/nemirov/pulse-bot/internal/storage"
	"go.uber.org/zap"
)

const searchSessionTTL = 5 * time.Minute

// Searcher is the web-search surface the handler depends on.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

const imageAnalysisPrompt = `Analyze this image carefully. Describe only what is clearly visible. Avoid guessing details.
Focus on:
- Objects
- Text (if any)
- Colors and patterns
- Any obvious context
Do NOT assume hidden meanings or relationships.`

type Bot struct {
	api           *tgbotapi.BotAPI
	storage       storage.Storage
	tagger        *sentiment.Tagger
	completer     ai.Completer
	search        Searcher
	analytics     *analytics.Aggregator
	sessions      *sessionStore
	adminUsername string
	httpClient    *http.Client
	logger        *zap.Logger
}

func New(token string, storage storage.Storage, tagger *sentiment.Tagger, completer ai.Completer,
	searchClient Searcher, aggregator *analytics.Aggregator, adminUsername string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:           api,
		storage:       storage,
		tagger:        tagger,
		completer:     completer,
		search:        searchClient,
		analytics:     aggregator,
		sessions:      newSessionStore(searchSessionTTL),
		adminUsername: adminUsername,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		logger:        logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

// handleMessage is the error boundary for one conversation event: whatever
// goes wrong inside, the update loop keeps running.
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in message handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", message.Chat.ID))
			b.sendErrorMessage(message.Chat.ID, "Something went wrong. Please try again later.")
		}
	}()

	ctx := context.Background()

	switch {
	case message.IsCommand():
		b.handleCommand(ctx, message)
	case message.Contact != nil:
		b.handleContact(ctx, message)
	case message.Photo != nil || message.Document != nil:
		b.handleFile(ctx, message)
	case message.Text != "":
		b.handleText(ctx, message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "dashboard":
		b.handleDashboard(ctx, message)
	case "websearch":
		b.handleWebSearch(message)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	user := &models.User{
		ChatID:    message.Chat.ID,
		FirstName: message.From.FirstName,
		Username:  message.From.UserName,
	}

	if err := b.storage.SaveUser(ctx, user); err != nil {
		b.logger.Error("Failed to save user",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, registration failed. Please try again.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID,
		"👋 Welcome! Please share your contact number to complete registration.")
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📞 Share Contact"),
		),
	)
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send welcome message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleContact(ctx context.Context, message *tgbotapi.Message) {
	user := &models.User{
		ChatID: message.Chat.ID,
		Phone:  message.Contact.PhoneNumber,
	}

	if err := b.storage.SaveUser(ctx, user); err != nil {
		b.logger.Error("Failed to save contact",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your contact. Please try again.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "✅ Registration complete! You can now start chatting.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send confirmation",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleDashboard(ctx context.Context, message *tgbotapi.Message) {
	if b.adminUsername == "" || message.From.UserName != b.adminUsername {
		b.sendMessage(message.Chat.ID, "⛔ Sorry, this command is for administrators only.")
		return
	}

	summary, err := b.analytics.Summary(ctx)
	if err != nil {
		b.logger.Error("Failed to load analytics summary", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Error fetching analytics data.")
		return
	}

	text := fmt.Sprintf("📊 *Analytics Dashboard*\n\n👥 Total Users: %d\n💬 Total Messages: %d\n",
		summary.TotalUsers, summary.TotalMessages)
	if len(summary.SentimentDistribution) > 0 {
		text += "\n*Sentiment \\(30 days\\):*\n"
		for _, bucket := range summary.SentimentDistribution {
			text += fmt.Sprintf("%s: %d\n", escapeMarkdown(bucket.Label), bucket.Count)
		}
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send dashboard message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleWebSearch(message *tgbotapi.Message) {
	b.sessions.armSearch(message.From.ID)
	b.sendMessage(message.Chat.ID, "🔎 Please enter your search query:")
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Register and share your contact
/websearch - Search the web and get a summary
/help - Show this help message

You can also send me any text message to chat, or a photo to have it analyzed.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	if b.sessions.consumeSearch(message.From.ID) {
		b.handleSearchQuery(ctx, message)
		return
	}

	response, err := b.completer.Complete(ctx, message.Text)
	if err != nil {
		b.logger.Error("Failed to get chat response",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error processing your request. Please try again later.")
		return
	}

	record := &models.ChatRecord{
		ID:        uuid.New().String(),
		ChatID:    message.Chat.ID,
		UserInput: message.Text,
		Response:  response,
		Sentiment: b.tagger.Analyze(message.Text),
		CreatedAt: time.Now().UTC(),
	}

	if err := b.storage.SaveChatRecord(ctx, record); err != nil {
		b.logger.Error("Failed to save chat record",
			zap.Error(err),
			zap.String("record_id", record.ID),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error processing your request. Please try again later.")
		return
	}

	b.sendMessage(message.Chat.ID, response)
}

func (b *Bot) handleSearchQuery(ctx context.Context, message *tgbotapi.Message) {
	result, err := b.search.Search(ctx, message.Text)
	if err != nil {
		b.logger.Error("Failed to run web search",
			zap.Error(err),
			zap.String("query", message.Text),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error fetching search results. Please try again.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatSearchReply(result))
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send search results",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func formatSearchReply(result *search.Response) string {
	text := fmt.Sprintf("📝 *Summary:* %s", escapeMarkdown(result.Summary))
	if len(result.Results) == 0 {
		return text
	}

	text += "\n\n🔗 *Top results:*\n"
	for _, r := range result.Results {
		text += fmt.Sprintf("\n• [%s](%s)", escapeMarkdown(r.Title), escapeLinkURL(r.Link))
	}
	return text
}

func (b *Bot) handleFile(ctx context.Context, message *tgbotapi.Message) {
	var fileID, fileName string
	switch {
	case message.Photo != nil:
		photo := message.Photo[len(message.Photo)-1]
		fileID = photo.FileID
		fileName = photo.FileID
	case message.Document != nil:
		fileID = message.Document.FileID
		fileName = message.Document.FileName
	default:
		b.sendErrorMessage(message.Chat.ID, "Unsupported file type. Please upload an image or document.")
		return
	}

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("Failed to download file",
			zap.Error(err),
			zap.String("file_id", fileID),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error processing the image. Please try again.")
		return
	}

	jpegData, err := normalizeToJPEG(data)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, "Unsupported file type. Please upload an image or document.")
		return
	}

	description, err := b.completer.DescribeImage(ctx, jpegData, imageAnalysisPrompt)
	if err != nil {
		b.logger.Error("Failed to analyze image",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error processing the image. Please try again.")
		return
	}

	record := &models.FileRecord{
		ID:          uuid.New().String(),
		ChatID:      message.Chat.ID,
		FileName:    fileName,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := b.storage.SaveFileRecord(ctx, record); err != nil {
		b.logger.Error("Failed to save file record",
			zap.Error(err),
			zap.String("record_id", record.ID),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Error processing the image. Please try again.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID,
		fmt.Sprintf("🖼️ *Image Analysis:* %s", escapeMarkdown(description)))
	msg.ParseMode = "MarkdownV2"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send image analysis",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("error resolving file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("error building download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// normalizeToJPEG re-encodes any decodable image (JPEG, PNG or GIF) as
// JPEG, the one format the vision request is built around.
func normalizeToJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("error encoding image: %w", err)
	}

	return buf.Bytes(), nil
}

func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func escapeLinkURL(url string) string {
	escaped := strings.ReplaceAll(url, "\\", "\\\\")
	return strings.ReplaceAll(escaped, ")", "\\)")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
