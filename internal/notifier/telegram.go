// Package notifier implements one-shot, fire-and-forget message
// delivery to Telegram and Slack. Notifiers keep no conversation
// state: each call is a single HTTP exchange whose failure is
// reported to the caller and nothing else.
package notifier

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const telegramAPIURL = "https://api.telegram.org/bot"

// Telegram sends messages and files to a chat through the Bot API.
type Telegram struct {
	token   string
	baseURL string
	http    *http.Client
}

func NewTelegram(token string) *Telegram {
	return &Telegram{
		token:   token,
		baseURL: telegramAPIURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage sends a text message to a chat or group.
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) error {
	endpoint := fmt.Sprintf("%s%s/sendMessage?chat_id=%s&text=%s",
		t.baseURL, t.token, url.QueryEscape(chatID), url.QueryEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: API status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// SendDocument uploads a file as a document attachment.
func (t *Telegram) SendDocument(ctx context.Context, chatID string, content io.Reader, fileName string) error {
	return t.sendFile(ctx, chatID, content, fileName, "sendDocument", "document")
}

// SendPhoto uploads an image.
func (t *Telegram) SendPhoto(ctx context.Context, chatID string, content io.Reader, fileName string) error {
	return t.sendFile(ctx, chatID, content, fileName, "sendPhoto", "photo")
}

// SendAudio uploads an audio file.
func (t *Telegram) SendAudio(ctx context.Context, chatID string, content io.Reader, fileName string) error {
	return t.sendFile(ctx, chatID, content, fileName, "sendAudio", "audio")
}

// SendVideo uploads a video file.
func (t *Telegram) SendVideo(ctx context.Context, chatID string, content io.Reader, fileName string) error {
	return t.sendFile(ctx, chatID, content, fileName, "sendVideo", "video")
}

// sendFile posts a multipart/form-data upload to the given Bot API
// endpoint, streaming the content through a pipe so large files never
// sit fully in memory.
func (t *Telegram) sendFile(ctx context.Context, chatID string, content io.Reader, fileName, endpoint, fieldName string) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, chatID, fieldName, fileName, content)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	reqURL := fmt.Sprintf("%s%s/%s", t.baseURL, t.token, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: uploading %s: %w", fieldName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram: API status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func writeUploadForm(form *multipart.Writer, chatID, fieldName, fileName string, content io.Reader) error {
	if err := form.WriteField("chat_id", chatID); err != nil {
		return err
	}
	part, err := form.CreateFormFile(fieldName, fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}
