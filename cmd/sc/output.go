package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"

	"scorecard/internal/domain"
	"scorecard/internal/hierarchy"
)

var stdout io.Writer = os.Stdout

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(stdout, string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(stdout)
	tw.AppendHeader(table.Row(header))
	return tw
}

// printTree renders a forest with box-drawing connectors, one line per node.
func printTree[T hierarchy.Keyed](w io.Writer, forest hierarchy.Forest[T], label func(T) string) {
	for i, n := range forest {
		printNode(w, n, label, "", i == len(forest)-1)
	}
}

func printNode[T hierarchy.Keyed](w io.Writer, n *hierarchy.Node[T], label func(T) string, prefix string, last bool) {
	connector := "├── "
	newPrefix := prefix + "│   "
	if last {
		connector = "└── "
		newPrefix = prefix + "    "
	}
	fmt.Fprintf(w, "%s%s%s\n", prefix, connector, label(n.Item))
	for i, c := range n.Children {
		printNode(w, c, label, newPrefix, i == len(n.Children)-1)
	}
}

func orgLabel(u domain.OrgUnit) string {
	s := fmt.Sprintf("%s (%s, #%d)", u.Name, u.OrgLevel, u.ID)
	if u.Owner != "" {
		s += " - " + u.Owner
	}
	return s
}

func goalLabel(g domain.GoalItem) string {
	s := fmt.Sprintf("[%s] %s (#%d)", g.GoalLevel, g.Name, g.ID)
	if g.Owner != "" {
		s += " - " + g.Owner
	}
	if g.Status != domain.StatusActive {
		s += " [" + string(g.Status) + "]"
	}
	return s
}

var ragColors = map[domain.RAGStatus]*color.Color{
	domain.RAGRed:        color.New(color.FgRed, color.Bold),
	domain.RAGAmber:      color.New(color.FgYellow),
	domain.RAGGreen:      color.New(color.FgGreen),
	domain.RAGComplete:   color.New(color.FgCyan),
	domain.RAGNotStarted: color.New(color.FgHiBlack),
}

func ragLabel(s domain.RAGStatus) string {
	if s == "" {
		return "-"
	}
	if c, ok := ragColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
