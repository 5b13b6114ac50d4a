package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-courier/msgtemplate"
)

var errTemplateInvalid = errors.New("template is not valid")

type templateSource struct {
	text string
	file string
}

func (s *templateSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.text, "template", "t", "", "template text")
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "file holding the template text")
}

func (s *templateSource) read() (string, error) {
	switch {
	case s.text != "":
		return s.text, nil
	case s.file != "":
		raw, err := os.ReadFile(s.file)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return strings.TrimRight(string(raw), "\r\n"), nil
	default:
		return "", errors.New("one of --template or --file is required")
	}
}

func newTemplateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Validate and render message templates",
	}
	cmd.AddCommand(
		newTemplateValidateCommand(a),
		newTemplateRenderCommand(a),
		newTemplateBytesCommand(a),
	)
	return cmd
}

type validateOutput struct {
	msgtemplate.ValidationResult
	Placeholders []string `json:"placeholders"`
}

func newTemplateValidateCommand(a *app) *cobra.Command {
	src := &templateSource{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a template before saving it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, err := src.read()
			if err != nil {
				return err
			}
			result := msgtemplate.ValidateTemplate(tpl)
			fmt.Fprintln(a.out, print.MaybePrettyJSON(validateOutput{
				ValidationResult: result,
				Placeholders:     msgtemplate.ExtractPlaceholders(tpl),
			}))
			if !result.IsValid {
				return errTemplateInvalid
			}
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}

type renderOutput struct {
	Row int `json:"row"`
	*msgtemplate.Report
	Bytes int                     `json:"bytes"`
	Type  msgtemplate.MessageType `json:"type"`
}

// loadRows reads a YAML file holding either one row or a list of rows.
func loadRows(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	var rows []map[string]any
	if err := yaml.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var row map[string]any
	if err := yaml.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode rows %s: %w", path, err)
	}
	return []map[string]any{row}, nil
}

func newTemplateRenderCommand(a *app) *cobra.Command {
	src := &templateSource{}
	var rowsPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template for each row of a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, err := src.read()
			if err != nil {
				return err
			}

			rows := []map[string]any{{}}
			if rowsPath != "" {
				if rows, err = loadRows(rowsPath); err != nil {
					return err
				}
			}

			opts := append(a.cfg.RenderOptions(), msgtemplate.WithLogger(a.logger.Named("msgtemplate")))
			out := make([]renderOutput, 0, len(rows))
			for i, row := range rows {
				report, err := msgtemplate.RenderReport(tpl, row, opts...)
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				out = append(out, renderOutput{
					Row:    i,
					Report: report,
					Bytes:  msgtemplate.CalculateMessageBytes(report.Message),
					Type:   msgtemplate.ClassifyMessage(report.Message),
				})
			}

			fmt.Fprintln(a.out, print.MaybePrettyJSON(out))
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVarP(&rowsPath, "rows", "r", "", "YAML file with one row or a list of rows")
	return cmd
}

func newTemplateBytesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bytes MESSAGE",
		Short: "Count message bytes and the SMS/LMS tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, print.MaybePrettyJSON(map[string]any{
				"bytes": msgtemplate.CalculateMessageBytes(args[0]),
				"type":  msgtemplate.ClassifyMessage(args[0]),
			}))
			return nil
		},
	}
}
