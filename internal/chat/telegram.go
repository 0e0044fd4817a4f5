package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const telegramMaxMessageLen = 4096

// TelegramChannel implements the Channel interface for the Telegram Bot API.
type TelegramChannel struct {
	token   string
	baseURL string
	client  *http.Client
	offset  int
	stop    chan struct{}
}

// NewTelegramChannel creates a Telegram channel adapter.
func NewTelegramChannel(token string) (*TelegramChannel, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required (STUDYBOT_TELEGRAM_BOT_TOKEN)")
	}
	return &TelegramChannel{
		token:   token,
		baseURL: "https://api.telegram.org/bot" + token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		stop: make(chan struct{}),
	}, nil
}

func (t *TelegramChannel) SendMessage(ctx context.Context, msg OutboundMessage) (int64, error) {
	parts := SplitMessage(msg.Text, telegramMaxMessageLen)

	var lastID int64
	for i, part := range parts {
		params := url.Values{
			"chat_id": {strconv.FormatInt(msg.ChatID, 10)},
			"text":    {part},
		}
		if msg.ParseMode != "" {
			params.Set("parse_mode", msg.ParseMode)
		}
		// The keyboard goes on the final part only.
		if i == len(parts)-1 && len(msg.Keyboard) > 0 {
			params.Set("reply_markup", inlineKeyboardJSON(msg.Keyboard))
		}

		id, err := t.postMessage(ctx, "sendMessage", params, msg.ParseMode != "")
		if err != nil {
			return 0, err
		}
		lastID = id
	}
	return lastID, nil
}

func (t *TelegramChannel) EditMessage(ctx context.Context, messageID int64, msg OutboundMessage) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(msg.ChatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {msg.Text},
	}
	if msg.ParseMode != "" {
		params.Set("parse_mode", msg.ParseMode)
	}
	if len(msg.Keyboard) > 0 {
		params.Set("reply_markup", inlineKeyboardJSON(msg.Keyboard))
	}
	_, err := t.postMessage(ctx, "editMessageText", params, msg.ParseMode != "")
	return err
}

func (t *TelegramChannel) ClearKeyboard(ctx context.Context, chatID, messageID int64) error {
	params := url.Values{
		"chat_id":      {strconv.FormatInt(chatID, 10)},
		"message_id":   {strconv.FormatInt(messageID, 10)},
		"reply_markup": {`{"inline_keyboard":[]}`},
	}
	_, err := t.postMessage(ctx, "editMessageReplyMarkup", params, false)
	return err
}

func (t *TelegramChannel) AnswerCallback(ctx context.Context, callbackID, text string) error {
	params := url.Values{
		"callback_query_id": {callbackID},
	}
	if text != "" {
		params.Set("text", text)
	}
	_, err := t.postMessage(ctx, "answerCallbackQuery", params, false)
	return err
}

func (t *TelegramChannel) Forward(ctx context.Context, toChatID, fromChatID, messageID int64) error {
	params := url.Values{
		"chat_id":      {strconv.FormatInt(toChatID, 10)},
		"from_chat_id": {strconv.FormatInt(fromChatID, 10)},
		"message_id":   {strconv.FormatInt(messageID, 10)},
	}
	_, err := t.postMessage(ctx, "forwardMessage", params, false)
	return err
}

// SendDocument uploads content as a document attachment.
func (t *TelegramChannel) SendDocument(ctx context.Context, chatID int64, fileName string, content []byte, caption string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}
	part, err := w.CreateFormFile("document", fileName)
	if err != nil {
		return fmt.Errorf("create document part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write document content: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendDocument", &body)
	if err != nil {
		return fmt.Errorf("create sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending Telegram document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendFile re-sends a stored file by its Telegram file id. The method is
// picked from the declared type so photos and videos keep their previews.
func (t *TelegramChannel) SendFile(ctx context.Context, chatID int64, fileID, fileType string) error {
	method, field := "sendDocument", "document"
	switch {
	case strings.HasPrefix(fileType, "image/"):
		method, field = "sendPhoto", "photo"
	case strings.HasPrefix(fileType, "audio/"):
		method, field = "sendAudio", "audio"
	case strings.HasPrefix(fileType, "video/"):
		method, field = "sendVideo", "video"
	}
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		field:     {fileID},
	}
	_, err := t.postMessage(ctx, method, params, false)
	return err
}

// DownloadFile fetches the contents of an uploaded file by its file id.
func (t *TelegramChannel) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	filePath, err := t.getFilePath(ctx, fileID)
	if err != nil {
		return nil, err
	}

	downloadURL := "https://api.telegram.org/file/bot" + t.token + "/" + filePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create file download request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram file download error %d: %s", resp.StatusCode, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read telegram file: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("telegram file is empty")
	}
	return content, nil
}

func (t *TelegramChannel) Start(ctx context.Context, handler func(InboundMessage)) error {
	if err := t.syncCommands(); err != nil {
		slog.Warn("failed to sync telegram commands", "error", err)
	}
	go t.pollLoop(ctx, handler)
	return nil
}

// syncCommands registers the bot's command menu with Telegram.
func (t *TelegramChannel) syncCommands() error {
	commands := []struct {
		Command     string `json:"command"`
		Description string `json:"description"`
	}{
		{"start", "Почати роботу"},
		{"tests", "Пройти тест до уроку"},
		{"quizzes", "Доступні контрольні роботи"},
		{"support", "Звернутися до підтримки"},
		{"help", "Часті запитання"},
		{"cancel", "Скасувати поточну дію"},
	}
	encoded, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("encode commands: %w", err)
	}

	resp, err := t.client.PostForm(t.baseURL+"/setMyCommands", url.Values{
		"commands": {string(encoded)},
	})
	if err != nil {
		return fmt.Errorf("setMyCommands request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error %d on setMyCommands", resp.StatusCode)
	}
	return nil
}

func (t *TelegramChannel) Stop() error {
	close(t.stop)
	return nil
}

// postMessage posts a form call, retrying without parse mode on a 400 when
// the text was sent with one. It returns the delivered message id when the
// response carries one.
func (t *TelegramChannel) postMessage(ctx context.Context, method string, params url.Values, hasParseMode bool) (int64, error) {
	id, status, err := t.postForm(ctx, method, params)
	if err != nil {
		return 0, fmt.Errorf("telegram %s: %w", method, err)
	}
	if status == http.StatusOK {
		return id, nil
	}
	if hasParseMode && status == http.StatusBadRequest {
		slog.Warn("telegram markdown parse failed, retrying plain", "method", method)
		params.Del("parse_mode")
		id, status, err = t.postForm(ctx, method, params)
		if err != nil {
			return 0, fmt.Errorf("telegram %s (retry): %w", method, err)
		}
		if status == http.StatusOK {
			return id, nil
		}
		return 0, fmt.Errorf("telegram API error %d on %s retry", status, method)
	}
	return 0, fmt.Errorf("telegram API error %d on %s", status, method)
}

func (t *TelegramChannel) postForm(ctx context.Context, method string, params url.Values) (int64, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, resp.StatusCode, err
	}

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	// editMessageReplyMarkup and answerCallbackQuery return booleans; a
	// decode failure there is not an error.
	_ = json.Unmarshal(body, &result)
	return result.Result.MessageID, resp.StatusCode, nil
}

func inlineKeyboardJSON(rows [][]Button) string {
	type tgButton struct {
		Text         string `json:"text"`
		CallbackData string `json:"callback_data"`
	}
	markup := struct {
		InlineKeyboard [][]tgButton `json:"inline_keyboard"`
	}{}
	for _, row := range rows {
		var out []tgButton
		for _, b := range row {
			out = append(out, tgButton{Text: b.Text, CallbackData: b.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, out)
	}
	encoded, _ := json.Marshal(markup)
	return string(encoded)
}

func (t *TelegramChannel) pollLoop(ctx context.Context, handler func(InboundMessage)) {
	slog.Info("Telegram long-polling started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
			updates, err := t.getUpdates(ctx)
			if err != nil {
				slog.Error("Telegram getUpdates error", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}

			for _, u := range updates {
				t.offset = u.UpdateID + 1
				msg, ok := mapTelegramInbound(u)
				if !ok {
					continue
				}
				go handler(msg)
			}
		}
	}
}

func (t *TelegramChannel) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	params := url.Values{
		"offset":  {strconv.Itoa(t.offset)},
		"timeout": {"30"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/getUpdates?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		OK     bool       `json:"ok"`
		Result []tgUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	if !result.OK {
		return nil, fmt.Errorf("telegram API returned ok=false")
	}

	return result.Result, nil
}

func (t *TelegramChannel) getFilePath(ctx context.Context, fileID string) (string, error) {
	params := url.Values{"file_id": {fileID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/getFile?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create getFile request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram getFile request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read getFile response: %w", err)
	}

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse getFile response: %w", err)
	}
	if !result.OK || result.Result.FilePath == "" {
		return "", fmt.Errorf("telegram getFile failed")
	}
	return result.Result.FilePath, nil
}

// Telegram API types (minimal)
type tgUpdate struct {
	UpdateID      int              `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type tgMessage struct {
	MessageID int64         `json:"message_id"`
	Text      string        `json:"text"`
	Caption   string        `json:"caption"`
	Document  *tgDocument   `json:"document,omitempty"`
	Photo     []tgPhotoSize `json:"photo,omitempty"`
	Audio     *tgMedia      `json:"audio,omitempty"`
	Video     *tgMedia      `json:"video,omitempty"`
	Chat      tgChat        `json:"chat"`
	From      tgUser        `json:"from"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgDocument struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
}

type tgPhotoSize struct {
	FileID string `json:"file_id"`
}

// tgMedia covers audio and video attachments; only the fields the bot needs.
type tgMedia struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SplitMessage splits text into chunks that fit Telegram's max message length.
func SplitMessage(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Find last newline or space within limit
		cutAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		} else if idx := strings.LastIndex(text[:maxLen], " "); idx > 0 {
			cutAt = idx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

func mapTelegramInbound(u tgUpdate) (InboundMessage, bool) {
	if u.CallbackQuery != nil {
		cb := u.CallbackQuery
		if cb.Message == nil {
			return InboundMessage{}, false
		}
		return InboundMessage{
			Channel:           "telegram",
			ChatID:            cb.Message.Chat.ID,
			UserID:            cb.From.ID,
			CallbackID:        cb.ID,
			CallbackData:      cb.Data,
			CallbackMessageID: cb.Message.MessageID,
			Username:          cb.From.Username,
			FirstName:         cb.From.FirstName,
			LastName:          cb.From.LastName,
		}, true
	}

	if u.Message == nil {
		return InboundMessage{}, false
	}

	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		text = strings.TrimSpace(u.Message.Caption)
	}

	msg := InboundMessage{
		Channel:   "telegram",
		ChatID:    u.Message.Chat.ID,
		UserID:    u.Message.From.ID,
		MessageID: u.Message.MessageID,
		Text:      text,
		Username:  u.Message.From.Username,
		FirstName: u.Message.From.FirstName,
		LastName:  u.Message.From.LastName,
	}
	switch {
	case u.Message.Document != nil:
		msg.Document = &Document{
			FileID:   u.Message.Document.FileID,
			FileName: u.Message.Document.FileName,
			MIMEType: u.Message.Document.MIMEType,
		}
	case len(u.Message.Photo) > 0:
		// Telegram sends several sizes of the same photo, smallest first.
		largest := u.Message.Photo[len(u.Message.Photo)-1]
		msg.Document = &Document{FileID: largest.FileID, MIMEType: "image/jpeg"}
	case u.Message.Audio != nil:
		msg.Document = mediaDocument(u.Message.Audio, "audio/mpeg")
	case u.Message.Video != nil:
		msg.Document = mediaDocument(u.Message.Video, "video/mp4")
	}
	if msg.Text == "" && msg.Document == nil {
		return InboundMessage{}, false
	}
	return msg, true
}

func mediaDocument(m *tgMedia, fallbackMIME string) *Document {
	mime := m.MIMEType
	if mime == "" {
		mime = fallbackMIME
	}
	return &Document{FileID: m.FileID, FileName: m.FileName, MIMEType: mime}
}
