// Copyright 2025 LLabs Tech
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	estatesearch "github.com/LLabsTech/EstateSearchAI"
	"github.com/LLabsTech/EstateSearchAI/config"
	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

func main() {
	app := &cli.App{
		Name:  "estatesearch",
		Usage: "Conversational property search over a real estate catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the yaml configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a single property question",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:   "chat",
				Usage:  "Interactive question and answer session",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-listings",
						Usage: "Print the supporting listings under each answer",
						Value: true,
					},
				},
			},
			{
				Name:   "reload-vectors",
				Usage:  "Rebuild the vector index from the property catalog",
				Action: reloadVectorsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openAssistant(c *cli.Context) (*estatesearch.Assistant, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	assistant, err := estatesearch.NewAssistant(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize assistant: %w", err)
	}

	// The memory backend starts empty, so restore the persisted snapshot
	// first and rebuild from the catalog only when none is usable.
	ctx := c.Context
	if assistant.IndexSize() == 0 {
		if err := assistant.Restore(ctx); err != nil && !errors.Is(err, vectorindex.ErrSnapshotUnavailable) {
			slog.Warn("could not restore persisted index, rebuilding", "err", err)
		}
		if assistant.IndexSize() == 0 {
			if _, err := assistant.ReloadVectors(ctx); err != nil {
				assistant.Close()
				return nil, fmt.Errorf("failed to build vector index: %w", err)
			}
		}
	}

	return assistant, nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	answer, err := assistant.Ask(c.Context, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.SupportingIDs) > 0 {
		fmt.Printf("\nSupporting listings: %s\n", strings.Join(answer.SupportingIDs, ", "))
	}

	return nil
}

func chatCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Printf("Loaded %d property listings. Ask about them, or type \"exit\" to leave.\n", assistant.IndexSize())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := assistant.Ask(c.Context, question)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Println(answer.Text)

		if c.Bool("show-listings") && len(answer.SupportingIDs) > 0 {
			for _, summary := range assistant.Listings(c.Context, answer.SupportingIDs) {
				fmt.Println()
				fmt.Println(summary)
			}
		}
		fmt.Println()
	}

	return scanner.Err()
}

func reloadVectorsCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	report, err := assistant.ReloadVectors(c.Context)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Printf("Rebuilt vector index: %d listings indexed, %d skipped.\n",
		report.Accepted, report.Skipped)
	for _, warning := range report.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
