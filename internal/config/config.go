// Package config defines the configuration contract and handles loading and validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyBotToken     = "BOT_TOKEN"
	KeyOwnerChatID  = "OWNER_CHAT_ID"
	KeyAppEnv       = "APP_ENV"
	KeyLogLevel     = "LOG_LEVEL"
	KeyHTTPPort     = "HTTP_PORT"
	KeyDataDir      = "DATA_DIR"
	KeyStoreBackend = "STORE_BACKEND"
	KeyMongoURI     = "MONGO_URI"
	KeyMongoDB      = "MONGO_DB"
	KeyCleanerURL   = "CLEANER_URL"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Allowed storage backends.
	BackendFile  = "file"
	BackendMongo = "mongo"

	// Defaults for optional settings.
	DefaultAppEnv       = EnvProduction
	DefaultLogLevel     = "info"
	DefaultHTTPPort     = 8080
	DefaultDataDir      = "."
	DefaultStoreBackend = BackendFile
	DefaultCleanerURL   = "https://puppeteer-repost-cleaner.onrender.com/clean"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyBotToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyOwnerChatID,
		Example:     "123456789",
		Required:    true,
		Description: "Chat id of the owner allowed to use the dashboard.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP health/diagnostics port.",
	},
	{
		Key:         KeyDataDir,
		Example:     "/var/lib/repost-cleaner",
		Default:     DefaultDataDir,
		Description: "Directory holding the JSON documents and welcome text for the file backend.",
	},
	{
		Key:         KeyStoreBackend,
		Example:     BackendFile + " / " + BackendMongo,
		Default:     DefaultStoreBackend,
		Description: "Where documents are persisted.",
		Notes:       KeyMongoURI + " and " + KeyMongoDB + " are required when " + KeyStoreBackend + "=" + BackendMongo + ".",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Description: "MongoDB connection string (mongo backend only).",
	},
	{
		Key:         KeyMongoDB,
		Example:     "repost_cleaner",
		Description: "MongoDB database name (mongo backend only).",
	},
	{
		Key:         KeyCleanerURL,
		Example:     DefaultCleanerURL,
		Default:     DefaultCleanerURL,
		Description: "Endpoint of the remote repost cleaning service.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	BotToken     string
	OwnerChatID  int64
	AppEnv       string
	LogLevel     string
	HTTPPort     int
	DataDir      string
	StoreBackend string
	MongoURI     string
	MongoDB      string
	CleanerURL   string
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:       firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		BotToken:     strings.TrimSpace(os.Getenv(KeyBotToken)),
		LogLevel:     firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:     DefaultHTTPPort,
		DataDir:      firstNonEmpty(os.Getenv(KeyDataDir), DefaultDataDir),
		StoreBackend: firstNonEmpty(normalizeEnv(os.Getenv(KeyStoreBackend)), DefaultStoreBackend),
		MongoURI:     strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:      strings.TrimSpace(os.Getenv(KeyMongoDB)),
		CleanerURL:   firstNonEmpty(os.Getenv(KeyCleanerURL), DefaultCleanerURL),
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.BotToken == "" {
		missing = append(missing, KeyBotToken)
	}

	ownerRaw := strings.TrimSpace(os.Getenv(KeyOwnerChatID))
	if ownerRaw == "" {
		missing = append(missing, KeyOwnerChatID)
	} else {
		ownerID, parseErr := strconv.ParseInt(ownerRaw, 10, 64)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyOwnerChatID, parseErr)
		}
		cfg.OwnerChatID = ownerID
	}

	switch cfg.StoreBackend {
	case BackendFile:
	case BackendMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, KeyMongoURI)
		}
		if cfg.MongoDB == "" {
			missing = append(missing, KeyMongoDB)
		}
	default:
		return Config{}, fmt.Errorf("invalid %s: must be %q or %q", KeyStoreBackend, BackendFile, BackendMongo)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if cfg.StoreBackend == BackendMongo {
		if err := validateMongoURI(cfg.MongoURI); err != nil {
			return Config{}, err
		}
	}

	if err := validateCleanerURL(cfg.CleanerURL); err != nil {
		return Config{}, err
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// UsesMongo reports whether documents live in MongoDB instead of local files.
func (c Config) UsesMongo() bool {
	return c.StoreBackend == BackendMongo
}

// FormatRedacted renders the configuration with secrets masked, suitable for logs.
func FormatRedacted(cfg Config) string {
	lines := []string{
		"bot_token: " + redactToken(cfg.BotToken),
		"owner_chat_id: " + strconv.FormatInt(cfg.OwnerChatID, 10),
		"app_env: " + cfg.AppEnv,
		"log_level: " + cfg.LogLevel,
		"http_port: " + strconv.Itoa(cfg.HTTPPort),
		"data_dir: " + cfg.DataDir,
		"store_backend: " + cfg.StoreBackend,
		"cleaner_url: " + cfg.CleanerURL,
	}

	if cfg.UsesMongo() {
		lines = append(lines,
			"mongo_uri: "+redactURI(cfg.MongoURI),
			"mongo_db: "+cfg.MongoDB,
		)
	}

	return strings.Join(lines, "\n")
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func validateMongoURI(raw string) error {
	if strings.HasPrefix(raw, "mongodb://") || strings.HasPrefix(raw, "mongodb+srv://") {
		return nil
	}

	return fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
}

func validateCleanerURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", KeyCleanerURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must be an absolute http(s) URL", KeyCleanerURL)
	}

	return nil
}

func redactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "...redacted"
	}

	return token[:4] + "...redacted"
}

func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "redacted"
	}
	parsed.User = nil

	return parsed.String()
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
