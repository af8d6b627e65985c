package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bookhaven/bookhaven-cli/pkg/models"
)

type Config struct {
	Server struct {
		URL string `yaml:"url"`
	} `yaml:"server"`
	User struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
		Role  string `yaml:"role"`
		Token string `yaml:"token"`
	} `yaml:"user"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func GetConfigDir() (string, error) {
	if dir := os.Getenv("BOOKHAVEN_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bookhaven"), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// HistoryPath is where the local activity database lives.
func HistoryPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "history.db"), nil
}

// DownloadsDir is the spool directory for in-flight downloads.
func DownloadsDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "downloads"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func Init() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	downloadsDir, err := DownloadsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}

	config := &Config{}
	config.Server.URL = "http://localhost:8080/api"
	config.Logging.Level = "info"

	return Save(config)
}

// GetServerURL resolves the backend base URL; the BOOKHAVEN_API_URL
// environment variable overrides the config file.
func GetServerURL() (string, error) {
	if u := os.Getenv("BOOKHAVEN_API_URL"); u != "" {
		return u, nil
	}
	config, err := Load()
	if err != nil {
		return "", err
	}
	if config.Server.URL == "" {
		return "", errors.New("server url not configured")
	}
	return config.Server.URL, nil
}

// CredentialStore persists the session identity in the config file. Token
// and user are written as one record so they cannot diverge.
type CredentialStore struct{}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Save(token string, user models.User) error {
	config, err := Load()
	if err != nil {
		return err
	}
	config.User.ID = user.ID
	config.User.Name = user.Name
	config.User.Email = user.Email
	config.User.Role = user.Role
	config.User.Token = token
	return Save(config)
}

func (s *CredentialStore) Load() (string, *models.User, error) {
	config, err := Load()
	if err != nil {
		// No config yet means an anonymous session, not a failure.
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, err
	}
	u := config.User
	if u.Token == "" && u.ID == "" && u.Name == "" && u.Email == "" && u.Role == "" {
		return "", nil, nil
	}
	return u.Token, &models.User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}, nil
}

func (s *CredentialStore) Clear() error {
	config, err := Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	config.User.ID = ""
	config.User.Name = ""
	config.User.Email = ""
	config.User.Role = ""
	config.User.Token = ""
	return Save(config)
}
