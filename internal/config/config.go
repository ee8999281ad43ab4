package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port                  int
	APIURL                string
	APIToken              string
	APITokenFile          string
	WorkspaceRoot         string
	DataDir               string // base directory for runtime data (default: "data")
	DefaultPersona        string
	PersonaFile           string
	RequestTimeoutSeconds int
	TranscriptDisabled    bool
	EventSinkURL          string
	LogLevel              string
	LogVerbose            bool
	OTELEnabled           bool
	OTELEndpoint          string
	OTELServiceName       string
	OTELEnvironment       string
	OTELInsecure          bool
}

func Load() (*Config, error) {
	apiURL := os.Getenv("SCRIBE_API_URL")
	if apiURL == "" {
		return nil, fmt.Errorf("SCRIBE_API_URL is required")
	}

	port := 8080
	if p := os.Getenv("PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("PORT must be a number: %w", err)
		}
	}

	workspaceRoot := os.Getenv("SCRIBE_WORKSPACE_ROOT")
	if workspaceRoot == "" {
		workspaceRoot = "."
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	defaultPersona := os.Getenv("SCRIBE_DEFAULT_PERSONA")
	if defaultPersona == "" {
		defaultPersona = "architect"
	}

	timeoutSeconds := 300
	if t := os.Getenv("SCRIBE_REQUEST_TIMEOUT_SECONDS"); t != "" {
		var err error
		timeoutSeconds, err = strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("SCRIBE_REQUEST_TIMEOUT_SECONDS must be a number: %w", err)
		}
	}

	transcriptDisabled := os.Getenv("SCRIBE_TRANSCRIPT_DISABLED") == "1" || os.Getenv("SCRIBE_TRANSCRIPT_DISABLED") == "true"

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logVerbose := os.Getenv("LOG_VERBOSE") == "1" || os.Getenv("LOG_VERBOSE") == "true"

	otelEnabled := os.Getenv("OTEL_ENABLED") == "1" || os.Getenv("OTEL_ENABLED") == "true"
	otelServiceName := os.Getenv("OTEL_SERVICE_NAME")
	if otelServiceName == "" {
		otelServiceName = "scribe"
	}
	otelEnvironment := os.Getenv("OTEL_ENVIRONMENT")
	if otelEnvironment == "" {
		otelEnvironment = "dev"
	}
	otelInsecure := os.Getenv("OTEL_INSECURE") == "1" || os.Getenv("OTEL_INSECURE") == "true"

	return &Config{
		Port:                  port,
		APIURL:                apiURL,
		APIToken:              os.Getenv("SCRIBE_API_TOKEN"),
		APITokenFile:          os.Getenv("SCRIBE_API_TOKEN_FILE"),
		WorkspaceRoot:         workspaceRoot,
		DataDir:               dataDir,
		DefaultPersona:        defaultPersona,
		PersonaFile:           os.Getenv("SCRIBE_PERSONA_FILE"),
		RequestTimeoutSeconds: timeoutSeconds,
		TranscriptDisabled:    transcriptDisabled,
		EventSinkURL:          os.Getenv("SCRIBE_EVENT_SINK_URL"),
		LogLevel:              logLevel,
		LogVerbose:            logVerbose,
		OTELEnabled:           otelEnabled,
		OTELEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName:       otelServiceName,
		OTELEnvironment:       otelEnvironment,
		OTELInsecure:          otelInsecure,
	}, nil
}
