package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/mirrorsync/internal/model"
)

// heading writes text as a heading of the given level.
func heading(md *markdown.Markdown, level int, text string) {
	switch level {
	case 1:
		md.H1(text)
	case 2:
		md.H2(text)
	case 3:
		md.H3(text)
	default:
		md.PlainText(strings.Repeat("#", level) + " " + text)
	}
}

// domainLinks renders one markdown link per domain. Clearnet domains are
// linked over https, every other network over http.
func domainLinks(network model.Network, domains []string) []string {
	links := make([]string, len(domains))
	for i, d := range domains {
		links[i] = fmt.Sprintf("[%s](%s://%s)", d, network.Scheme(), d)
	}
	return links
}

// writeSections writes one heading per network followed by its links.
func writeSections(md *markdown.Markdown, data groupData, level int) {
	for _, s := range data.sections {
		heading(md, level, s.network.Title())
		md.BulletList(domainLinks(s.network, s.domains)...)
	}
}

// renderGroupMarkdown renders the ReadMe.MD of a group.
func renderGroupMarkdown(data groupData, level int) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)
	writeSections(md, data, level)
	md.PlainText("")
	if err := md.Build(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// anchor returns the in-page anchor of a group heading.
func anchor(g model.Group) string {
	return "#" + strings.ReplaceAll(g.Key(), " ", "-")
}

// renderAllMarkdown renders instances/all.md: a contents list, a summary
// of the domain counts, then every group with one sub-heading per network.
func renderAllMarkdown(groups []groupData) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("All Instances")
	md.PlainText("")
	md.H2("Contents")
	contents := make([]string, len(groups))
	for i, data := range groups {
		contents[i] = fmt.Sprintf("[%s](%s)", data.group.Name, anchor(data.group))
	}
	md.BulletList(contents...)
	md.PlainText("")

	writeSummary(md, groups)

	for _, data := range groups {
		md.PlainText("")
		md.H2(data.group.Name)
		md.PlainText("")
		if data.group.Description != "" {
			md.PlainText(data.group.Description)
			md.PlainText("")
		}
		writeSections(md, data, 3)
	}
	md.PlainText("")

	if err := md.Build(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSummary writes a table of domain counts per group and network and
// a pie chart of the totals.
func writeSummary(md *markdown.Markdown, groups []groupData) {
	md.H2("Summary")
	md.PlainText("")

	header := []string{"Service"}
	for _, n := range model.Networks {
		header = append(header, n.Title())
	}

	totals := make(map[model.Network]int, len(model.Networks))
	rows := make([][]string, 0, len(groups))
	for _, data := range groups {
		counts := make(map[model.Network]int, len(data.sections))
		present := make(map[model.Network]bool, len(data.sections))
		for _, s := range data.sections {
			counts[s.network] += len(s.domains)
			present[s.network] = true
			totals[s.network] += len(s.domains)
		}
		row := []string{data.group.Name}
		for _, n := range model.Networks {
			if !present[n] {
				row = append(row, "-")
				continue
			}
			row = append(row, strconv.Itoa(counts[n]))
		}
		rows = append(rows, row)
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Instances per Network"),
		piechart.WithShowData(true),
	)
	hasData := false
	for _, n := range model.Networks {
		if totals[n] > 0 {
			chart.LabelAndIntValue(n.Title(), uint64(totals[n]))
			hasData = true
		}
	}
	if hasData {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}
