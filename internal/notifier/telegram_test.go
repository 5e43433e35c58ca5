package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tg := NewTelegram("bot-token")
	tg.baseURL = srv.URL + "/bot"
	tg.http = srv.Client()
	return tg
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotChatID, gotText string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotChatID = r.URL.Query().Get("chat_id")
		gotText = r.URL.Query().Get("text")
	})

	err := tg.SendMessage(context.Background(), "12345", "olá & welcome")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotChatID != "12345" || gotText != "olá & welcome" {
		t.Errorf("chat_id = %q, text = %q", gotChatID, gotText)
	}
}

func TestSendMessageStatusError(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	})

	err := tg.SendMessage(context.Background(), "12345", "hi")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want status 401 reported", err)
	}
}

func TestSendDocumentMultipart(t *testing.T) {
	var gotChatID, gotFileName, gotContent string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botbot-token/sendDocument" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		gotChatID = r.FormValue("chat_id")

		file, header, err := r.FormFile("document")
		if err != nil {
			t.Fatalf("reading file field: %v", err)
		}
		defer file.Close()
		gotFileName = header.Filename
		data, _ := io.ReadAll(file)
		gotContent = string(data)
	})

	err := tg.SendDocument(context.Background(), "12345", strings.NewReader("report body"), "report.pdf")
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if gotChatID != "12345" {
		t.Errorf("chat_id = %q", gotChatID)
	}
	if gotFileName != "report.pdf" || gotContent != "report body" {
		t.Errorf("file = %q (%q), want report.pdf with report body", gotFileName, gotContent)
	}
}

func TestSendPhotoUsesPhotoField(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if _, _, err := r.FormFile("photo"); err != nil {
			t.Errorf("photo field missing: %v", err)
		}
	})

	if err := tg.SendPhoto(context.Background(), "1", strings.NewReader("png"), "a.png"); err != nil {
		t.Fatalf("SendPhoto: %v", err)
	}
}
