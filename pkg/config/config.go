package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	GigaChat GigaChatConfig
	OCR      OCRConfig
	Twilio   TwilioConfig
	Archive  ArchiveConfig
	Pipeline PipelineConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port                  string
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	MaxConcurrentMessages int64
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite only
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type OCRConfig struct {
	Provider  string // tesseract or gigachat
	Languages []string
	PDFDPI    float64
}

// TwilioConfig carries the transport credentials. They are also used to
// download attachments, whose URLs only accept the account's own auth.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type ArchiveConfig struct {
	Provider string // none, local or gcs
	Dir      string
	Bucket   string
}

type PipelineConfig struct {
	MinPDFTextChars           int
	MaxExtractionChars        int
	MaxRawTextChars           int
	MaxAttachmentBytes        int64
	IntentConfidenceThreshold float64
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win in containers
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	maxConcurrent, _ := strconv.ParseInt(getEnv("SERVER_MAX_CONCURRENT_MESSAGES", "8"), 10, 64)
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "720"))
	pdfDPI, _ := strconv.ParseFloat(getEnv("OCR_PDF_DPI", "200"), 64)
	minPDFText, _ := strconv.Atoi(getEnv("PIPELINE_MIN_PDF_TEXT_CHARS", "50"))
	maxExtraction, _ := strconv.Atoi(getEnv("PIPELINE_MAX_EXTRACTION_CHARS", "6000"))
	maxRawText, _ := strconv.Atoi(getEnv("PIPELINE_MAX_RAW_TEXT_CHARS", "10000"))
	maxAttachment, _ := strconv.ParseInt(getEnv("PIPELINE_MAX_ATTACHMENT_BYTES", "20971520"), 10, 64)
	threshold, _ := strconv.ParseFloat(getEnv("INTENT_CONFIDENCE_THRESHOLD", "0.7"), 64)
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Config{
		Server: ServerConfig{
			Port:                  getEnv("SERVER_PORT", "8080"),
			ReadTimeout:           time.Duration(readTimeout) * time.Second,
			WriteTimeout:          time.Duration(writeTimeout) * time.Second,
			MaxConcurrentMessages: maxConcurrent,
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "expense_bot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "./data/expenses.db"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		OCR: OCRConfig{
			Provider:  getEnv("OCR_PROVIDER", "tesseract"),
			Languages: splitList(getEnv("OCR_LANGUAGES", "por,eng")),
			PDFDPI:    pdfDPI,
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
		Archive: ArchiveConfig{
			Provider: getEnv("ARCHIVE_PROVIDER", "local"),
			Dir:      getEnv("ARCHIVE_DIR", "uploads"),
			Bucket:   getEnv("ARCHIVE_BUCKET", ""),
		},
		Pipeline: PipelineConfig{
			MinPDFTextChars:           minPDFText,
			MaxExtractionChars:        maxExtraction,
			MaxRawTextChars:           maxRawText,
			MaxAttachmentBytes:        maxAttachment,
			IntentConfidenceThreshold: threshold,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
