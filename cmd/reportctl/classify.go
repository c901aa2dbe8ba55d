package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <title>...",
	Short: "Show the category each section title maps to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  classifyTitles,
}

func init() {
	RootCmd.AddCommand(classifyCmd)
}

func classifyTitles(cmd *cobra.Command, args []string) error {
	c, err := classifier()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Title", "Category", "Display", "Matched"})
	for _, title := range args {
		res, ok := c.Classify(title)
		if !ok {
			table.Append([]string{title, color.New(color.FgHiBlack).Sprint("meta (skipped)"), "", ""})
			continue
		}
		matched := color.GreenString("yes")
		if !res.Matched {
			matched = color.YellowString("fallback")
		}
		table.Append([]string{strings.TrimSpace(title), string(res.Category), res.DisplayKey, matched})
	}
	table.Render()
	return nil
}
