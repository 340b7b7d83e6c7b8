package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/zephyr-bridge/pkg/casekey"
	"github.com/dkoosis/zephyr-bridge/pkg/report"
	"github.com/dkoosis/zephyr-bridge/pkg/reporter"
	"github.com/dkoosis/zephyr-bridge/pkg/zephyr"
)

// FileName is the config file looked up when --config is not given.
const FileName = ".zephyr.yaml"

// appDir is the directory under the user config dir holding FileName.
const appDir = "zephyr-bridge"

// Constants for default values.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
)

// TestCycle customizes the test cycle Zephyr Scale creates for a run.
type TestCycle struct {
	Name               string         `yaml:"name,omitempty"`
	Description        string         `yaml:"description,omitempty"`
	JiraProjectVersion int            `yaml:"jira_project_version,omitempty" validate:"gte=0"`
	FolderID           int            `yaml:"folder_id,omitempty" validate:"gte=0"`
	CustomFields       map[string]any `yaml:"custom_fields,omitempty"`
}

// Config is the full zephyr-bridge configuration, as read from .zephyr.yaml.
type Config struct {
	ProjectKey          string        `yaml:"project_key" validate:"required"`
	AuthorizationToken  string        `yaml:"authorization_token" validate:"required"`
	BaseURL             string        `yaml:"base_url" validate:"required,url"`
	AutoCreateTestCases bool          `yaml:"auto_create_test_cases"`
	KeyPattern          string        `yaml:"key_pattern" validate:"required"`
	CommentAnnotation   string        `yaml:"comment_annotation" validate:"required"`
	OutputDir           string        `yaml:"output_dir" validate:"required"`
	Timeout             time.Duration `yaml:"timeout" validate:"gte=0"`
	TestCycle           TestCycle     `yaml:"test_cycle"`
	LogLevel            string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat           string        `yaml:"log_format" validate:"oneof=auto console json"`
	MetricsTextfile     string        `yaml:"metrics_textfile"`
	NoColor             bool          `yaml:"no_color"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		BaseURL:           zephyr.DefaultBaseURL,
		KeyPattern:        casekey.DefaultPattern,
		CommentAnnotation: reporter.DefaultCommentAnnotation,
		OutputDir:         report.DefaultDir,
		Timeout:           DefaultTimeout,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}
}

// ZephyrTestCycle converts the test cycle section for the Zephyr client.
// Returns nil when no field is set, so the upload omits the testCycle part.
func (c *Config) ZephyrTestCycle() *zephyr.TestCycle {
	tc := c.TestCycle
	if tc.Name == "" && tc.Description == "" && tc.JiraProjectVersion == 0 && tc.FolderID == 0 && len(tc.CustomFields) == 0 {
		return nil
	}
	return &zephyr.TestCycle{
		Name:               tc.Name,
		Description:        tc.Description,
		JiraProjectVersion: tc.JiraProjectVersion,
		FolderID:           tc.FolderID,
		CustomFields:       tc.CustomFields,
	}
}

// Load reads the config file at path. An empty path looks up the default
// locations; finding nothing there is not an error and yields a nil Config.
// The returned string is the path actually read.
func Load(path string) (*Config, string, error) {
	if path == "" {
		path = getConfigPath()
		if path == "" {
			return nil, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrapf(err, "reading config file %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, errors.Wrapf(err, "parsing config file %s", path)
	}
	return &cfg, path, nil
}

// getConfigPath finds .zephyr.yaml in the working directory, then under the
// user config dir. Returns "" if neither exists.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, appDir, FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}
