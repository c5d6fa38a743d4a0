package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"AutoBlogger/internal/app"
	"AutoBlogger/internal/config"
	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	application := app.New(cfg, logger)

	if err := newCommand(application).Run(ctx, os.Args); err != nil {
		logger.Error("autoblogger stopped", "error", err)
		os.Exit(1)
	}
}

func newCommand(application *app.Application) *cli.Command {
	return &cli.Command{
		Name:  "autoblogger",
		Usage: "research, write and publish SEO blog articles",
		Commands: []*cli.Command{
			generateCommand(application),
			submitCommand(application),
			compressCommand(application),
		},
	}
}

func generateCommand(application *app.Application) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "write one article per topic and publish it to the site index",
		ArgsUsage: "TOPIC...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "category path such as Travel/Japan"},
			&cli.IntFlag{Name: "sections", Usage: "number of h2 sections"},
			&cli.StringFlag{Name: "lang", Usage: "output language"},
			&cli.BoolFlag{Name: "review", Usage: "review the outline before writing"},
			&cli.StringFlag{Name: "model", Usage: "override the generation model"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outcomes, err := application.Generate(ctx, app.GenerateOptions{
				Topics:   cmd.Args().Slice(),
				Category: splitCategory(cmd.String("category")),
				Sections: cmd.Int("sections"),
				Language: cmd.String("lang"),
				Model:    cmd.String("model"),
				Review:   cmd.Bool("review"),
				In:       os.Stdin,
				Out:      os.Stdout,
			})
			for _, o := range outcomes {
				switch o.Status {
				case domain.StatusPublished:
					fmt.Fprintf(os.Stdout, "%-9s %s -> %s\n", o.Status, o.Topic, o.Result.Link)
				default:
					fmt.Fprintf(os.Stdout, "%-9s %s\n", o.Status, o.Topic)
				}
			}
			return err
		},
	}
}

func submitCommand(application *app.Application) *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "submit the links of the site feed to IndexNow",
		ArgsUsage: "[FEED]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			n, err := application.Submit(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "submitted %d urls\n", n)
			return nil
		},
	}
}

func compressCommand(application *app.Application) *cli.Command {
	return &cli.Command{
		Name:      "compress",
		Usage:     "compress large site images",
		ArgsUsage: "[DIR]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			results, err := application.Compress(cmd.Args().First())
			for _, r := range results {
				fmt.Fprintf(os.Stdout, "%s: %d KB -> %d KB\n", r.Output, r.Before/1024, r.After/1024)
			}
			return err
		},
	}
}

func splitCategory(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, "/")
}
