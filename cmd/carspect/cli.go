package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/AbhigyanVE/carspect"
	"github.com/AbhigyanVE/carspect/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	DB      *sqlite.DB
	Service carspect.ExtractService
	Entries carspect.EntryLister
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Extract a structured record from a vehicle listing URL"`
	Serve   ServeCmd   `cmd:"" help:"Run the extraction HTTP API"`
	Cache   CacheCmd   `cmd:"" help:"Inspect the response cache"`
}

// PipelineFlags are shared by the commands that run the extraction pipeline.
type PipelineFlags struct {
	Browser   bool    `short:"b" help:"Render pages in headless Chrome instead of plain HTTP"`
	Sanitizer string  `default:"goquery" enum:"goquery,readability,trafilatura" help:"HTML cleanup strategy"`
	Provider  string  `default:"gemini" enum:"gemini,openai" help:"LLM provider for gap filling"`
	NoLLM     bool    `name:"no-llm" help:"Disable the LLM gap-filling fallback"`
	NoNER     bool    `name:"no-ner" help:"Disable entity enrichment"`
	NoCache   bool    `name:"no-cache" help:"Bypass the response cache"`
	Overwrite bool    `help:"Let LLM values replace rule-extracted values"`
	CSVCache  string  `name:"csv-cache" help:"Path to a CSV cache file (replaces the SQLite cache)"`
	Archive   string  `help:"Directory to archive raw fetched HTML into"`
	RPS       float64 `default:"1" help:"Max requests per second per target domain"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL string `arg:"" help:"Vehicle listing URL"`

	PipelineFlags `embed:""`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8080" help:"Listen address"`

	PipelineFlags `embed:""`
}

// CacheCmd groups cache inspection subcommands.
type CacheCmd struct {
	List CacheListCmd `cmd:"" help:"List cached extraction results"`
}

// CacheListCmd is the "cache list" subcommand.
type CacheListCmd struct {
	CSVCache string `name:"csv-cache" help:"Path to a CSV cache file (replaces the SQLite cache)"`
}
