package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"expense-bot/pkg/config"

	"go.uber.org/zap"
)

type fakeGigaChat struct {
	mu          sync.Mutex
	oauthCalls  int
	uploadAuth  []string
	chatBody    map[string]any
	uploadCode  int
	visionReply string
}

func (f *fakeGigaChat) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.oauthCalls++
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Basic a2V5" || r.Header.Get("RqUID") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 1800})
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.uploadAuth = append(f.uploadAuth, r.Header.Get("Authorization"))
		code := f.uploadCode
		f.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("upload without file part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if r.FormValue("purpose") != "general" || header.Filename != "document.png" || string(data) != "png-bytes" {
			t.Errorf("unexpected upload: purpose=%q name=%q data=%q", r.FormValue("purpose"), header.Filename, data)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "file-42"})
	})
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.chatBody = body
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"content": f.visionReply}}},
		})
	})
	return mux
}

func (f *fakeGigaChat) oauthCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.oauthCalls
}

func newVisionService(t *testing.T, f *fakeGigaChat) *LLMService {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return &LLMService{
		config:     &config.GigaChatConfig{APIKey: "a2V5", Scope: "GIGACHAT_API_PERS", Model: "GigaChat-Pro"},
		logger:     zap.NewNop(),
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		oauthURL:   srv.URL + "/oauth",
	}
}

func TestRecognizeViaVision(t *testing.T) {
	f := &fakeGigaChat{visionReply: "  Farmácia Saúde Total 15/05/2024 Total R$ 80,00  "}
	s := newVisionService(t, f)

	text, err := s.Recognize(context.Background(), []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "Farmácia Saúde Total 15/05/2024 Total R$ 80,00" {
		t.Errorf("unexpected text: %q", text)
	}

	f.mu.Lock()
	uploadAuth, chatBody := f.uploadAuth, f.chatBody
	f.mu.Unlock()
	if len(uploadAuth) != 1 || uploadAuth[0] != "Bearer tok-1" {
		t.Errorf("upload auth: %v", uploadAuth)
	}
	if chatBody["model"] != "GigaChat-Pro" {
		t.Errorf("model: %v", chatBody["model"])
	}
	messages, _ := chatBody["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages: %v", chatBody["messages"])
	}
	attachments, _ := messages[0].(map[string]any)["attachments"].([]any)
	if len(attachments) != 1 || !strings.Contains(jsonString(t, attachments[0]), "file-42") {
		t.Errorf("attachments: %v", attachments)
	}

	// the token is cached between calls
	if _, err := s.Recognize(context.Background(), []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("second Recognize failed: %v", err)
	}
	if f.oauthCount() != 1 {
		t.Errorf("expected one OAuth exchange, got %d", f.oauthCalls)
	}
}

func TestRecognizeRefusalIsEmpty(t *testing.T) {
	f := &fakeGigaChat{visionReply: "Desculpe, não consigo ler o conteúdo desta imagem."}
	s := newVisionService(t, f)

	text, err := s.Recognize(context.Background(), []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "" {
		t.Errorf("refusal should read as empty, got %q", text)
	}
}

func TestUploadUnauthorizedInvalidatesToken(t *testing.T) {
	f := &fakeGigaChat{uploadCode: http.StatusUnauthorized}
	s := newVisionService(t, f)

	if _, err := s.UploadFile(context.Background(), []byte("png-bytes"), "image/png"); err == nil {
		t.Fatal("expected upload to fail")
	}
	if s.accessToken != "" {
		t.Error("token should be invalidated after a 401")
	}

	f.mu.Lock()
	f.uploadCode = 0
	f.mu.Unlock()
	if _, err := s.UploadFile(context.Background(), []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if f.oauthCount() != 2 {
		t.Errorf("expected a fresh OAuth exchange, got %d", f.oauthCalls)
	}
}

func TestUploadFileName(t *testing.T) {
	for contentType, want := range map[string]string{
		"application/pdf": "document.pdf",
		"image/png":       "document.png",
		"image/jpeg":      "document.jpg",
	} {
		if got := uploadFileName(contentType); got != want {
			t.Errorf("uploadFileName(%s) = %s", contentType, got)
		}
	}
}

func jsonString(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
