package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kpcalc/backend/internal/domain"
	"github.com/kpcalc/backend/internal/usecase"
)

type calculateOptions struct {
	input  string
	target float64
	markup float64
	format string
}

func newCalculateCmd(root *rootOptions) *cobra.Command {
	opts := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Match, price and summarize a bundle of request lines and catalogs",
		Example: `  kpcalc calculate --input tender.yaml
  kpcalc calculate --input tender.json --target 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			input, err := readBundle(opts.input)
			if err != nil {
				return err
			}

			service := newService(cfg, logger)
			if cmd.Flags().Changed("target") || cmd.Flags().Changed("markup") {
				settings := service.DefaultSettings()
				if input.Settings != nil {
					settings = *input.Settings
				}
				if cmd.Flags().Changed("target") {
					settings.TargetDiscountPercent = opts.target
				}
				if cmd.Flags().Changed("markup") {
					settings.FallbackMarkupPercent = opts.markup
				}
				input.Settings = &settings
			}

			out, err := service.Calculate(cmd.Context(), input)
			if err != nil {
				return err
			}

			if opts.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return renderText(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "bundle file (.yaml, .yml or .json); - reads stdin as YAML")
	cmd.Flags().Float64Var(&opts.target, "target", 0, "target discount percent below the competitor total")
	cmd.Flags().Float64Var(&opts.markup, "markup", 0, "markup percent for lines without a competitor price")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// readBundle decodes a calculation bundle. JSON files are decoded strictly as JSON,
// everything else as YAML.
func readBundle(path string) (*usecase.CalculateInput, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var input usecase.CalculateInput
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, fmt.Errorf("decode bundle %s: %w", path, err)
		}
		return &input, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode bundle %s: %w", path, domain.ErrEmptyRequest)
		}
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return &input, nil
}
