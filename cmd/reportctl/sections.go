package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/parser"
	"github.com/dgallion1/reportdoc/internal/report"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [file]",
	Short: "List parsed sections with their category and extracted entities",
	Args:  cobra.MaximumNArgs(1),
	RunE:  sections,
}

func init() {
	RootCmd.AddCommand(sectionsCmd)
}

func sections(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	opts, err := parseOptions()
	if err != nil {
		return err
	}
	c, err := classifier()
	if err != nil {
		return err
	}

	doc := report.Build(parser.Parse(text, opts), report.Options{Classifier: c})
	if len(doc.Sections) == 0 {
		fmt.Println("🤷‍♂️ No sections found")
		return nil
	}
	if doc.Title != "" {
		fmt.Println(color.New(color.Bold).Sprint(doc.Title))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "ID", "Title", "Category", "Display", "Entities"})
	for _, s := range doc.Sections {
		row := []string{
			strconv.Itoa(s.Index),
			s.ID,
			s.Title,
			string(s.Category),
			s.DisplayKey,
			entitySummary(s),
		}
		var style []tablewriter.Colors
		if s.Category == doctree.CategoryGeneral {
			style = []tablewriter.Colors{{}, {}, {}, {tablewriter.FgYellowColor}, {}, {}}
		} else {
			style = []tablewriter.Colors{{}, {}, {tablewriter.Bold}, {tablewriter.FgGreenColor}, {}, {}}
		}
		table.Rich(row, style)
	}
	table.Render()

	for _, title := range doc.Skipped {
		fmt.Println(color.New(color.FgHiBlack).Sprintf("skipped meta section %q", title))
	}
	return nil
}

func entitySummary(s doctree.Section) string {
	accs := len(s.Accommodations)
	for _, sub := range s.Subsections {
		accs += len(sub.Accommodations)
	}
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(len(s.Subsections), "subsections")
	add(accs, "accommodations")
	add(len(s.Impacts), "impacts")
	add(len(s.Citations), "citations")
	add(len(s.Metadata), "fields")
	return strings.Join(parts, ", ")
}
