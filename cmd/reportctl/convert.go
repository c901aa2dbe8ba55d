package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/reportdoc/internal/markup"
	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/dgallion1/reportdoc/internal/render"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Print text with formatting markers stripped",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			return err
		}
		fmt.Println(markup.Normalize(text))
		return nil
	},
}

var htmlCmd = &cobra.Command{
	Use:   "html [file]",
	Short: "Render report text as a standalone HTML page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			return err
		}
		opts, err := parseOptions()
		if err != nil {
			return err
		}
		title := ""
		if sections := parser.Parse(text, opts); len(sections) > 0 {
			title = sections[0].Title
		}
		page, err := render.Page(title, text)
		if err != nil {
			return err
		}
		fmt.Print(page)
		return nil
	},
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip [file]",
	Short: "Check that serializing parsed sections yields the same sections",
	Args:  cobra.MaximumNArgs(1),
	RunE:  roundtrip,
}

func init() {
	RootCmd.AddCommand(normalizeCmd, htmlCmd, roundtripCmd)
}

func roundtrip(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	opts, err := parseOptions()
	if err != nil {
		return err
	}

	first := parser.Parse(text, opts)
	second := parser.Parse(parser.Serialize(first, opts), opts)

	mismatches := 0
	if len(first) != len(second) {
		fmt.Println(color.RedString("section count changed: %d → %d", len(first), len(second)))
		mismatches++
	}
	for i := 0; i < len(first) && i < len(second); i++ {
		a, b := first[i], second[i]
		switch {
		case a.Title != b.Title:
			fmt.Println(color.RedString("#%d title %q → %q", i, a.Title, b.Title))
			mismatches++
		case a.Content != b.Content:
			fmt.Println(color.RedString("#%d %q content changed", i, a.Title))
			mismatches++
		case a.ID != b.ID:
			fmt.Println(color.RedString("#%d %q id %s → %s", i, a.Title, a.ID, b.ID))
			mismatches++
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d round-trip mismatches", mismatches)
	}
	fmt.Println(color.GreenString("✅ %d sections round-trip cleanly", len(first)))
	return nil
}
