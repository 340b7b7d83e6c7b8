package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/dkoosis/zephyr-bridge/internal/config"
	"github.com/dkoosis/zephyr-bridge/internal/console"
	"github.com/dkoosis/zephyr-bridge/internal/logging"
	"github.com/dkoosis/zephyr-bridge/internal/metrics"
	"github.com/dkoosis/zephyr-bridge/internal/version"
	"github.com/dkoosis/zephyr-bridge/pkg/gotest"
	"github.com/dkoosis/zephyr-bridge/pkg/reporter"
	"github.com/dkoosis/zephyr-bridge/pkg/zephyr"
)

// bridge wires a resolved configuration into a reporter and its collaborators.
type bridge struct {
	cfg      *config.Resolved
	log      zerolog.Logger
	console  *console.Console
	metrics  *metrics.Metrics
	reporter *reporter.Reporter
}

func newBridge(c *cli.Context) (*bridge, error) {
	file, path, err := config.Load(c.String(ConfigFile.Name))
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(file, path, flagConfig(c))
	if err != nil {
		return nil, err
	}

	stderr := c.App.ErrWriter
	log, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat, cfg.NoColor)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("config_file", cfg.FilePath).Interface("layers", cfg.Layers).Msg("configuration resolved")

	cons := console.New(stderr, cfg.NoColor)
	m := metrics.New()

	client, err := zephyr.New(zephyr.Options{
		BaseURL:             cfg.BaseURL,
		Token:               cfg.AuthorizationToken,
		ProjectKey:          cfg.ProjectKey,
		AutoCreateTestCases: cfg.AutoCreateTestCases,
		TestCycle:           cfg.ZephyrTestCycle(),
		Logger:              log,
		UserAgent:           version.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	rep, err := reporter.New(reporter.Options{
		ProjectKey:        cfg.ProjectKey,
		KeyPattern:        cfg.KeyPattern,
		CommentAnnotation: cfg.CommentAnnotation,
		OutputDir:         cfg.OutputDir,
		PublishTimeout:    cfg.Timeout,
		Logger:            log,
		Console:           cons,
		Metrics:           m,
	}, client)
	if err != nil {
		return nil, err
	}

	return &bridge{cfg: cfg, log: log, console: cons, metrics: m, reporter: rep}, nil
}

// publish drives the reporter from inputs, prints the run summary and exports
// metrics. The returned error is a publishing or input failure.
func (b *bridge) publish(ctx context.Context, inputs ...io.Reader) (*reporter.Summary, error) {
	b.log.Debug().Str("run_id", b.reporter.RunID()).Int("inputs", len(inputs)).Msg("consuming test output")
	sum, stats, err := gotest.Run(ctx, b.reporter, b.cfg.CommentAnnotation, inputs...)
	b.log.Info().
		Int("tests", stats.Tests).
		Int("lines", stats.Lines).
		Int("malformed_lines", stats.Malformed).
		Msg("test output consumed")
	if stats.Malformed > 0 {
		b.log.Warn().
			Int("malformed_lines", stats.Malformed).
			Int("lines", stats.Lines).
			Msgf("skipped %d of %d lines that are not go test -json events", stats.Malformed, stats.Lines)
	}

	if sum != nil && len(sum.Records) > 0 {
		b.console.PrintSummary(consoleSummary(sum))
	}

	if path := b.cfg.MetricsTextfile; path != "" {
		if werr := b.metrics.WriteTextfile(path); werr != nil {
			b.log.Warn().Err(werr).Str("path", path).Msg("writing metrics textfile failed")
		}
	}

	if err != nil {
		return sum, errors.Wrap(err, "publishing test results")
	}
	return sum, nil
}

func consoleSummary(sum *reporter.Summary) console.Summary {
	s := console.Summary{
		Rows:      make([]console.SummaryRow, len(sum.Records)),
		Excluded:  sum.Excluded,
		Published: sum.Phase == reporter.Published,
	}
	for i, rec := range sum.Records {
		row := console.SummaryRow{Key: rec.TestCase.Key, Result: rec.Result}
		if i < len(sum.Titles) {
			row.Title = sum.Titles[i]
		}
		s.Rows[i] = row
	}
	if sum.Run != nil {
		s.CycleKey = sum.Run.Key
		s.CycleURL = sum.Run.URL
	}
	return s
}
