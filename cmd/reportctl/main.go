package main

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/reportdoc/internal/classify"
	"github.com/dgallion1/reportdoc/internal/parser"
)

var (
	titlePattern string
	rulesPath    string
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "reportctl [command] [flags]",
	Short:         "Inspect and convert assessment report text",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&titlePattern, "title-pattern", "", "regexp matching the leading document title line")
	RootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "YAML classifier rules file")
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgHiRed, color.Bold).Sprint("🚨 "+err.Error()))
		os.Exit(1)
	}
}

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()
	if titlePattern != "" {
		re, err := regexp.Compile(titlePattern)
		if err != nil {
			return opts, fmt.Errorf("invalid --title-pattern: %w", err)
		}
		opts.TitlePattern = re
	}
	return opts, nil
}

func classifier() (*classify.Classifier, error) {
	if rulesPath == "" {
		return classify.Default(), nil
	}
	f, err := os.Open(rulesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return classify.LoadRules(f)
}
