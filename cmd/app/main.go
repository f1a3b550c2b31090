package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dotmjsc/pwl-editor/internal"
	pkgconfig "github.com/dotmjsc/pwl-editor/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if cmd.Bool("mcp") {
		opts = append(opts, internal.WithMCP())
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "pwled",
		Usage: "Piecewise-linear waveform editor with file storage, full-text search, and MCP integration",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (or the MCP stdio server with --mcp)",
				Action: serve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "config",
						Aliases:     []string{"c"},
						Usage:       "Path to config file",
						DefaultText: "config/config.yaml",
						Value:       "config/config.yaml",
						Sources:     cli.EnvVars("APP_CONFIG_FILE"),
					},
					&cli.BoolFlag{
						Name:  "mcp",
						Usage: "Serve waveform tools over stdio (MCP) instead of HTTP",
					},
				},
			},
			checkCommand(),
			repairCommand(),
			generateCommand(),
			convertCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
