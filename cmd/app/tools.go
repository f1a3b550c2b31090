package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dotmjsc/pwl-editor/internal/editor"
	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/repair"
)

// loadEditor reads a PWL file into a fresh editor session.
func loadEditor(path string) (*editor.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ed := editor.New(0, 0)
	if err := ed.LoadText(string(data)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ed, nil
}

// writeResult prints the document text, or writes it to --output / back to
// the input file with --in-place.
func writeResult(cmd *cli.Command, inputPath, text string) error {
	out := cmd.String("output")
	if cmd.Bool("in-place") {
		out = inputPath
	}
	if out == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the result to a file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "in-place",
			Usage: "Overwrite the input file with the result",
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Scan a PWL file for duplicate timestamps and time reversals",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "epsilon",
				Usage: "Time comparison epsilon (0 uses the default)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			ed, err := loadEditor(path)
			if err != nil {
				return err
			}
			epsilon := cmd.Float("epsilon")
			if epsilon <= 0 {
				epsilon = repair.DefaultTimeEpsilon
			}
			issues := ed.Analyze(epsilon)
			if issues.Empty() {
				fmt.Println("no issues found")
				return nil
			}
			out, _ := json.MarshalIndent(issues, "", "  ")
			fmt.Println(string(out))
			return cli.Exit("", 1)
		},
	}
}

func repairCommand() *cli.Command {
	return &cli.Command{
		Name:      "repair",
		Usage:     "Fix duplicate timestamps and time reversals in a PWL file",
		ArgsUsage: "<file>",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "duplicates",
				Usage: "Duplicate strategy: none, center, shift_right, shift_left, remove",
			},
			&cli.StringFlag{
				Name:  "reversals",
				Usage: "Reversal strategy: none, sort, remove",
			},
			&cli.FloatFlag{
				Name:  "slew-rate",
				Usage: "Maximum slew rate used when spreading duplicates (0 uses the default)",
			},
		),
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			ed, err := loadEditor(path)
			if err != nil {
				return err
			}
			params := editor.DefaultRepairParams()
			if v := cmd.String("duplicates"); v != "" {
				params.DuplicateStrategy = v
			}
			if v := cmd.String("reversals"); v != "" {
				params.ReversalStrategy = v
			}
			if v := cmd.Float("slew-rate"); v > 0 {
				params.MaxSlewRate = v
			}
			if err := ed.Repair(params); err != nil {
				return err
			}
			return writeResult(cmd, path, ed.Render())
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Synthesize a square, triangle, or saw waveform",
		ArgsUsage: "<square|triangle|saw>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:     "config",
				Usage:    `Generator parameters as JSON, e.g. '{"high_level":5,"period":1e-6,"duty_cycle":50,"cycles":4}'`,
				Required: true,
			},
			&cli.StringFlag{
				Name:  "base",
				Usage: "Existing PWL file to append the generated wave to",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			shape := cmd.Args().First()
			cfgJSON := []byte(cmd.String("config"))

			ed := editor.New(0, 0)
			mode := editor.ApplyReplace
			if base := cmd.String("base"); base != "" {
				data, err := os.ReadFile(base)
				if err != nil {
					return fmt.Errorf("read %s: %w", base, err)
				}
				if err := ed.LoadText(string(data)); err != nil {
					return fmt.Errorf("parse %s: %w", base, err)
				}
				mode = editor.ApplyAppend
			}

			var warnings []string
			var err error
			switch editor.Shape(shape) {
			case editor.ShapeSquare:
				var cfg generate.SquareConfig
				if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
					return fmt.Errorf("invalid config JSON: %w", err)
				}
				warnings, err = ed.GenerateSquare(cfg, mode)
			case editor.ShapeTriangle:
				var cfg generate.TriangleConfig
				if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
					return fmt.Errorf("invalid config JSON: %w", err)
				}
				warnings, err = ed.GenerateTriangle(cfg, mode)
			case editor.ShapeSaw:
				var cfg generate.SawConfig
				if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
					return fmt.Errorf("invalid config JSON: %w", err)
				}
				warnings, err = ed.GenerateSaw(cfg, mode)
			default:
				return fmt.Errorf("unknown shape: %q (expected square, triangle, or saw)", shape)
			}
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				fmt.Fprintln(os.Stderr, "warning:", warning)
			}
			return writeResult(cmd, "", ed.Render())
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a PWL file's time mode or number notation",
		ArgsUsage: "<file>",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "target",
				Usage: "Time mode: relative or absolute",
			},
			&cli.StringFlag{
				Name:  "times",
				Usage: "Time notation: si or engineering",
			},
			&cli.StringFlag{
				Name:  "values",
				Usage: "Value notation: si or engineering",
			},
		),
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			ed, err := loadEditor(path)
			if err != nil {
				return err
			}

			switch cmd.String("target") {
			case "":
			case "relative":
				ed.ConvertToRelative()
			case "absolute":
				ed.ConvertToAbsolute()
			default:
				return fmt.Errorf("target must be 'relative' or 'absolute'")
			}
			if v := cmd.String("times"); v != "" {
				if err := ed.ConvertTimes(editor.NumberStyle(v)); err != nil {
					return err
				}
			}
			if v := cmd.String("values"); v != "" {
				if err := ed.ConvertValues(editor.NumberStyle(v)); err != nil {
					return err
				}
			}
			return writeResult(cmd, path, ed.Render())
		},
	}
}
