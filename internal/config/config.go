package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default server settings
	DefaultServerHost = "localhost"
	DefaultServerPort = 3000

	// Default HTTP server timeouts
	DefaultReadTimeout    = 15 * time.Second
	DefaultWriteTimeout   = 15 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultMaxHeaderBytes = 1 << 20 // 1MB

	// Sessions without client activity for this long are swept.
	DefaultSessionIdleTimeout = 30 * time.Minute

	// Default collaborator endpoints. Credentials have no defaults.
	DefaultEntraGraphURL = "https://graph.microsoft.com/v1.0"
	DefaultKubeTokenFile = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	DefaultKubeAPIServer = "https://kubernetes.default.svc"
)

// Config holds all configuration for the gateway
type Config struct {
	Server      ServerConfig
	Logger      LoggerConfig
	Auth        AuthConfig
	Vault       CollaboratorConfig
	ArgoCD      CollaboratorConfig
	Artifactory CollaboratorConfig
	Entra       EntraConfig
	Kubernetes  KubernetesConfig
	Environment string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxHeaderBytes     int
	SessionIdleTimeout time.Duration
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level   string
	Format  string
	Service string
	Version string
}

// AuthConfig holds authorization resolver configuration.
//
// Mode "jwt" validates inbound bearer tokens against Secret/Issuer/Audience.
// Mode "local" bypasses token validation and grants LocalPermissions to every
// caller; it exists for local development only.
type AuthConfig struct {
	Mode             string
	Secret           string
	Issuer           string
	Audience         string
	LocalPermissions []string
}

// CollaboratorConfig holds endpoint and credential for a wrapped service.
// A collaborator is enabled when its URL is non-empty.
type CollaboratorConfig struct {
	URL   string
	Token string
}

// Enabled reports whether the collaborator is configured at all.
func (c CollaboratorConfig) Enabled() bool {
	return c.URL != ""
}

// EntraConfig holds Microsoft Graph directory configuration
type EntraConfig struct {
	URL      string
	TenantID string
	Token    string
}

// Enabled reports whether the directory collaborator is configured.
func (c EntraConfig) Enabled() bool {
	return c.TenantID != ""
}

// KubernetesConfig holds cluster API configuration. The token is read from
// TokenFile, falling back to Token when set directly.
type KubernetesConfig struct {
	APIServer string
	Token     string
	TokenFile string
	Enabled   bool
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []string

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	if len(ve) == 1 {
		return ve[0]
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(ve, "; "))
}

// FileConfig represents configuration loaded from YAML files
type FileConfig struct {
	Server FileServerConfig `yaml:"server"`
	Logger FileLoggerConfig `yaml:"logger"`
	Auth   FileAuthConfig   `yaml:"auth"`
}

type FileServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReadTimeout    string `yaml:"read_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
	IdleTimeout    string `yaml:"idle_timeout"`
	MaxHeaderBytes int    `yaml:"max_header_bytes"`
}

type FileLoggerConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Service string `yaml:"service"`
	Version string `yaml:"version"`
}

type FileAuthConfig struct {
	Mode     string `yaml:"mode"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// loadConfigFile attempts to load configuration from YAML files
func loadConfigFile() (*FileConfig, error) {
	configPath := getEnv("GATEWAY_CONFIG_FILE", "")
	if configPath == "" {
		// Try default locations
		candidates := []string{
			"configs/development.yaml",
			"configs/production.yaml",
		}

		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}

	if configPath == "" {
		return nil, nil // No config file found, not an error
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var fileConfig FileConfig
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &fileConfig, nil
}

// mergeFileConfig merges file configuration with base config, respecting environment variable precedence
func mergeFileConfig(base *Config, file *FileConfig) *Config {
	if file == nil {
		return base
	}

	result := *base // Copy base config

	// Merge server config (only if not overridden by env vars)
	if file.Server.Host != "" && os.Getenv("GATEWAY_SERVER_HOST") == "" {
		result.Server.Host = file.Server.Host
	}
	if file.Server.Port != 0 && os.Getenv("GATEWAY_SERVER_PORT") == "" {
		result.Server.Port = file.Server.Port
	}
	if file.Server.ReadTimeout != "" && os.Getenv("GATEWAY_SERVER_READ_TIMEOUT") == "" {
		if duration, err := time.ParseDuration(file.Server.ReadTimeout); err == nil {
			result.Server.ReadTimeout = duration
		}
	}
	if file.Server.WriteTimeout != "" && os.Getenv("GATEWAY_SERVER_WRITE_TIMEOUT") == "" {
		if duration, err := time.ParseDuration(file.Server.WriteTimeout); err == nil {
			result.Server.WriteTimeout = duration
		}
	}
	if file.Server.IdleTimeout != "" && os.Getenv("GATEWAY_SERVER_IDLE_TIMEOUT") == "" {
		if duration, err := time.ParseDuration(file.Server.IdleTimeout); err == nil {
			result.Server.IdleTimeout = duration
		}
	}
	if file.Server.MaxHeaderBytes != 0 && os.Getenv("GATEWAY_SERVER_MAX_HEADER_BYTES") == "" {
		result.Server.MaxHeaderBytes = file.Server.MaxHeaderBytes
	}

	// Merge logger config (only if not overridden by env vars)
	if file.Logger.Level != "" && os.Getenv("GATEWAY_LOG_LEVEL") == "" {
		result.Logger.Level = file.Logger.Level
	}
	if file.Logger.Format != "" && os.Getenv("GATEWAY_LOG_FORMAT") == "" {
		result.Logger.Format = file.Logger.Format
	}
	if file.Logger.Service != "" && os.Getenv("GATEWAY_SERVICE_NAME") == "" {
		result.Logger.Service = file.Logger.Service
	}
	if file.Logger.Version != "" && os.Getenv("GATEWAY_VERSION") == "" {
		result.Logger.Version = file.Logger.Version
	}

	// Merge auth config (secrets never come from files)
	if file.Auth.Mode != "" && os.Getenv("GATEWAY_AUTH_MODE") == "" {
		result.Auth.Mode = file.Auth.Mode
	}
	if file.Auth.Issuer != "" && os.Getenv("GATEWAY_AUTH_ISSUER") == "" {
		result.Auth.Issuer = file.Auth.Issuer
	}
	if file.Auth.Audience != "" && os.Getenv("GATEWAY_AUTH_AUDIENCE") == "" {
		result.Auth.Audience = file.Auth.Audience
	}

	return &result
}

// Load loads configuration from environment variables and files with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("GATEWAY_SERVER_HOST", DefaultServerHost),
			Port:               getEnvInt("GATEWAY_SERVER_PORT", DefaultServerPort),
			ReadTimeout:        getEnvDuration("GATEWAY_SERVER_READ_TIMEOUT", DefaultReadTimeout),
			WriteTimeout:       getEnvDuration("GATEWAY_SERVER_WRITE_TIMEOUT", DefaultWriteTimeout),
			IdleTimeout:        getEnvDuration("GATEWAY_SERVER_IDLE_TIMEOUT", DefaultIdleTimeout),
			MaxHeaderBytes:     getEnvInt("GATEWAY_SERVER_MAX_HEADER_BYTES", DefaultMaxHeaderBytes),
			SessionIdleTimeout: getEnvDuration("GATEWAY_SESSION_IDLE_TIMEOUT", DefaultSessionIdleTimeout),
		},
		Logger: LoggerConfig{
			Level:   getEnv("GATEWAY_LOG_LEVEL", "info"),
			Format:  getEnv("GATEWAY_LOG_FORMAT", "json"),
			Service: getEnv("GATEWAY_SERVICE_NAME", "mcp-gateway"),
			Version: getEnv("GATEWAY_VERSION", "dev"),
		},
		Auth: AuthConfig{
			Mode:             getEnv("GATEWAY_AUTH_MODE", "local"),
			Secret:           getEnv("GATEWAY_AUTH_SECRET", ""),
			Issuer:           getEnv("GATEWAY_AUTH_ISSUER", ""),
			Audience:         getEnv("GATEWAY_AUTH_AUDIENCE", ""),
			LocalPermissions: getEnvList("GATEWAY_AUTH_LOCAL_PERMISSIONS", []string{"admin"}),
		},
		Vault: CollaboratorConfig{
			URL:   getEnv("VAULT_ADDR", ""),
			Token: getEnv("VAULT_TOKEN", ""),
		},
		ArgoCD: CollaboratorConfig{
			URL:   getEnv("ARGOCD_URL", ""),
			Token: getEnv("ARGOCD_TOKEN", ""),
		},
		Artifactory: CollaboratorConfig{
			URL:   getEnv("ARTIFACTORY_URL", ""),
			Token: getEnv("ARTIFACTORY_API_KEY", ""),
		},
		Entra: EntraConfig{
			URL:      getEnv("ENTRA_GRAPH_URL", DefaultEntraGraphURL),
			TenantID: getEnv("ENTRA_TENANT_ID", ""),
			Token:    getEnv("ENTRA_TOKEN", ""),
		},
		Kubernetes: KubernetesConfig{
			APIServer: getEnv("KUBE_API_SERVER", DefaultKubeAPIServer),
			Token:     getEnv("KUBE_TOKEN", ""),
			TokenFile: getEnv("KUBE_TOKEN_FILE", DefaultKubeTokenFile),
			Enabled:   getEnvBool("KUBE_ENABLED", false),
		},
		Environment: getEnv("GATEWAY_ENVIRONMENT", "development"),
	}

	fileConfig, err := loadConfigFile()
	if err != nil {
		return nil, err
	}
	cfg = mergeFileConfig(cfg, fileConfig)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent. A
// configured collaborator without a credential is fatal; credentials are
// never defaulted.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port %d out of range", c.Server.Port))
	}
	if c.Server.SessionIdleTimeout < 0 {
		errs = append(errs, "GATEWAY_SESSION_IDLE_TIMEOUT must not be negative")
	}

	switch c.Auth.Mode {
	case "local":
		// nothing to validate
	case "jwt":
		if c.Auth.Secret == "" {
			errs = append(errs, "auth mode jwt requires GATEWAY_AUTH_SECRET")
		}
		if c.Auth.Issuer == "" {
			errs = append(errs, "auth mode jwt requires GATEWAY_AUTH_ISSUER")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown auth mode %q", c.Auth.Mode))
	}

	if c.Vault.Enabled() && c.Vault.Token == "" {
		errs = append(errs, "VAULT_ADDR is set but VAULT_TOKEN is missing")
	}
	if c.ArgoCD.Enabled() && c.ArgoCD.Token == "" {
		errs = append(errs, "ARGOCD_URL is set but ARGOCD_TOKEN is missing")
	}
	if c.Artifactory.Enabled() && c.Artifactory.Token == "" {
		errs = append(errs, "ARTIFACTORY_URL is set but ARTIFACTORY_API_KEY is missing")
	}
	if c.Entra.Enabled() && c.Entra.Token == "" {
		errs = append(errs, "ENTRA_TENANT_ID is set but ENTRA_TOKEN is missing")
	}
	if c.Kubernetes.Enabled && c.Kubernetes.Token == "" && c.Kubernetes.TokenFile == "" {
		errs = append(errs, "KUBE_ENABLED is set but no token or token file is configured")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
