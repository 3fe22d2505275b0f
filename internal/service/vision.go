package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// refusalPhrases mark replies where the model declined to transcribe. They
// are treated as an empty transcription.
var refusalPhrases = []string{
	"não consigo ler",
	"não é possível ler",
	"não consigo ajudar",
	"não posso ajudar",
	"cannot help",
	"cannot process",
	"please provide",
	"не могу помочь",
	"не могу обработать",
	"не могу извлечь",
}

// Recognize implements OCREngine using GigaChat vision: the buffer is
// uploaded as a file and attached to a transcription request.
func (s *LLMService) Recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	fileID, err := s.UploadFile(ctx, data, contentType)
	if err != nil {
		return "", err
	}

	prompt := visionImagePrompt
	if contentType == "application/pdf" {
		prompt = visionPDFPrompt
	}

	text, err := s.ExtractTextViaVisionAPI(ctx, fileID, prompt)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			s.logger.Warn("Vision model declined to transcribe", zap.String("file_id", fileID))
			return "", nil
		}
	}

	return text, nil
}

// UploadFile stores the buffer in GigaChat storage with purpose "general"
// so it can be attached to completions, and returns the file id.
func (s *LLMService) UploadFile(ctx context.Context, data []byte, contentType string) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {contentType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, uploadFileName(contentType))},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		s.invalidateToken()
		return "", fmt.Errorf("upload rejected with 401, token invalidated")
	case http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("file too large (413)")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Info("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

// ExtractTextViaVisionAPI asks the model to transcribe an uploaded file.
// Attachments are sent as [["file_id"]].
func (s *LLMService) ExtractTextViaVisionAPI(ctx context.Context, fileID, prompt string) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	requestBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature":        0.1,
		"stream":             false,
		"repetition_penalty": 1.0,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		s.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	s.logger.Info("Text extracted via GigaChat Vision",
		zap.String("file_id", fileID),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func uploadFileName(contentType string) string {
	switch contentType {
	case "application/pdf":
		return "document.pdf"
	case "image/png":
		return "document.png"
	case "image/webp":
		return "document.webp"
	default:
		return "document.jpg"
	}
}
