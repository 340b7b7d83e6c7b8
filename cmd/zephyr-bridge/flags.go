package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dkoosis/zephyr-bridge/internal/config"
)

// EnvVarPrefix prefixes the environment variable of every flag.
const EnvVarPrefix = "ZEPHYR"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		EnvVars: prefixEnvVar("CONFIG"),
		Usage:   "Path to the config file (default: ./.zephyr.yaml, then the user config dir)",
	}
	ProjectKey = &cli.StringFlag{
		Name:    "project-key",
		EnvVars: prefixEnvVar("PROJECT_KEY"),
		Usage:   "Zephyr Scale project key, also the prefix of every test case key",
	}
	AuthorizationToken = &cli.StringFlag{
		Name:    "token",
		EnvVars: prefixEnvVar("AUTHORIZATION_TOKEN"),
		Usage:   "Zephyr Scale API token",
	}
	BaseURL = &cli.StringFlag{
		Name:    "base-url",
		EnvVars: prefixEnvVar("BASE_URL"),
		Usage:   "Zephyr Scale API root (default: " + config.Defaults().BaseURL + ")",
	}
	AutoCreateTestCases = &cli.BoolFlag{
		Name:    "auto-create-test-cases",
		EnvVars: prefixEnvVar("AUTO_CREATE_TEST_CASES"),
		Usage:   "Let Zephyr Scale create test cases missing from the project",
	}
	KeyPattern = &cli.StringFlag{
		Name:    "key-pattern",
		EnvVars: prefixEnvVar("KEY_PATTERN"),
		Usage:   "Regular expression whose first capture group is the case id in a test title (default: " + config.Defaults().KeyPattern + ")",
	}
	CommentAnnotation = &cli.StringFlag{
		Name:    "comment-annotation",
		EnvVars: prefixEnvVar("COMMENT_ANNOTATION"),
		Usage:   "Annotation type whose description becomes the execution comment",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		EnvVars: prefixEnvVar("OUTPUT_DIR"),
		Usage:   "Directory the JSON report and its zip archive are written to",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		EnvVars: prefixEnvVar("TIMEOUT"),
		Usage:   "Upload timeout (e.g. '90s')",
	}
	CycleName = &cli.StringFlag{
		Name:    "cycle-name",
		EnvVars: prefixEnvVar("CYCLE_NAME"),
		Usage:   "Name of the created test cycle",
	}
	CycleDescription = &cli.StringFlag{
		Name:    "cycle-description",
		EnvVars: prefixEnvVar("CYCLE_DESCRIPTION"),
		Usage:   "Description of the created test cycle",
	}
	CycleJiraVersion = &cli.IntFlag{
		Name:    "cycle-jira-version",
		EnvVars: prefixEnvVar("CYCLE_JIRA_VERSION"),
		Usage:   "Jira project version id of the created test cycle",
	}
	CycleFolderID = &cli.IntFlag{
		Name:    "cycle-folder-id",
		EnvVars: prefixEnvVar("CYCLE_FOLDER_ID"),
		Usage:   "Folder id the created test cycle is placed in",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Log level: debug, info, warn, error",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log-format",
		EnvVars: prefixEnvVar("LOG_FORMAT"),
		Usage:   "Log format: auto, console, json",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics-textfile",
		EnvVars: prefixEnvVar("METRICS_TEXTFILE"),
		Usage:   "Write Prometheus metrics to this node-exporter textfile at the end of the run",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		EnvVars: prefixEnvVar("NO_COLOR"),
		Usage:   "Disable colors and animation",
	}

	Passthrough = &cli.BoolFlag{
		Name:    "passthrough",
		EnvVars: prefixEnvVar("PASSTHROUGH"),
		Usage:   "Echo the test command's stdout while it is consumed",
	}
	Inputs = &cli.StringSliceFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "go test -json file to ingest; repeatable, stdin when omitted",
	}
)

// Flags are the global flags shared by every subcommand.
var Flags = []cli.Flag{
	ConfigFile,
	ProjectKey,
	AuthorizationToken,
	BaseURL,
	AutoCreateTestCases,
	KeyPattern,
	CommentAnnotation,
	OutputDir,
	Timeout,
	CycleName,
	CycleDescription,
	CycleJiraVersion,
	CycleFolderID,
	LogLevel,
	LogFormat,
	MetricsTextfile,
	NoColor,
}

// flagConfig returns the configuration layer made of explicitly set flags and
// their environment variables.
func flagConfig(c *cli.Context) *config.Config {
	var cfg config.Config
	setString := func(f *cli.StringFlag, dst *string) {
		if c.IsSet(f.Name) {
			*dst = c.String(f.Name)
		}
	}
	setInt := func(f *cli.IntFlag, dst *int) {
		if c.IsSet(f.Name) {
			*dst = c.Int(f.Name)
		}
	}
	setBool := func(f *cli.BoolFlag, dst *bool) {
		if c.IsSet(f.Name) {
			*dst = c.Bool(f.Name)
		}
	}

	setString(ProjectKey, &cfg.ProjectKey)
	setString(AuthorizationToken, &cfg.AuthorizationToken)
	setString(BaseURL, &cfg.BaseURL)
	setBool(AutoCreateTestCases, &cfg.AutoCreateTestCases)
	setString(KeyPattern, &cfg.KeyPattern)
	setString(CommentAnnotation, &cfg.CommentAnnotation)
	setString(OutputDir, &cfg.OutputDir)
	if c.IsSet(Timeout.Name) {
		cfg.Timeout = c.Duration(Timeout.Name)
	}
	setString(CycleName, &cfg.TestCycle.Name)
	setString(CycleDescription, &cfg.TestCycle.Description)
	setInt(CycleJiraVersion, &cfg.TestCycle.JiraProjectVersion)
	setInt(CycleFolderID, &cfg.TestCycle.FolderID)
	setString(LogLevel, &cfg.LogLevel)
	setString(LogFormat, &cfg.LogFormat)
	setString(MetricsTextfile, &cfg.MetricsTextfile)
	setBool(NoColor, &cfg.NoColor)
	return &cfg
}
