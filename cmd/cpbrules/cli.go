package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/cpbrules"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *cpbrules.Config

	Runner    cpbrules.Runner
	Sections  cpbrules.SectionReader
	Writer    cpbrules.GuidelineWriter
	Validator cpbrules.Validator
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string        `short:"C" type:"path" help:"YAML configuration file"`
	Provider    string        `short:"P" help:"Language model provider (openai or gemini)"`
	Model       string        `short:"m" help:"Model name (defaults per provider)"`
	Title       string        `help:"Policy title written into the guideline"`
	Payer       string        `help:"Payer name written into the guideline"`
	Strict      bool          `help:"Enforce operator values and operator/children pairing"`
	Attempts    int           `help:"Maximum completions per policy"`
	Timeout     time.Duration `help:"Timeout for each completion"`
	Browser     bool          `short:"b" help:"Render pages in headless Chrome"`
	Verbose     bool          `short:"v" help:"Log every stage to stderr"`
	MetricsFile string        `type:"path" help:"Write Prometheus metrics to this file on exit"`

	Extract  ExtractCmd  `cmd:"" help:"Extract a policy's rule tree as JSON"`
	Section  SectionCmd  `cmd:"" help:"Print a policy's extracted section text"`
	Batch    BatchCmd    `cmd:"" help:"Extract every policy listed in a manifest"`
	Validate ValidateCmd `cmd:"" help:"Validate a guideline JSON document"`
}

// apply overrides cfg with the global flags that were set.
func (c *CLI) apply(cfg *cpbrules.Config) {
	if c.Provider != "" {
		cfg.Provider = c.Provider
	}
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Title != "" {
		cfg.Title = c.Title
	}
	if c.Payer != "" {
		cfg.Payer = c.Payer
	}
	if c.Strict {
		cfg.Strict = true
	}
	if c.Attempts != 0 {
		cfg.Attempts = c.Attempts
	}
	if c.Timeout != 0 {
		cfg.CompletionTimeout = c.Timeout
	}
	if c.Browser {
		cfg.Browser = true
	}
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL string `arg:"" optional:"" help:"Policy page URL (defaults to the configured source)"`
}

// SectionCmd is the "section" subcommand.
type SectionCmd struct {
	URL string `arg:"" optional:"" help:"Policy page URL (defaults to the configured source)"`
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	Manifest    string `arg:"" type:"path" help:"YAML manifest listing the policies"`
	Out         string `short:"o" required:"" type:"path" help:"Directory the guidelines are written to"`
	Concurrency int    `short:"c" help:"Policies processed at once (defaults to the configured value)"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	File      string `arg:"" help:"Guideline JSON file, or - for stdin"`
	Normalize bool   `short:"n" help:"Replace title, payer and root rule text with the configured values"`
}
