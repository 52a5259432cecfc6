package plan

import (
	"strings"
)

type detailer interface {
	Details() []string
}

// FormatPlan renders the plan tree. Nodes that expose details list them
// beneath their header.
func FormatPlan(n Node) string {
	var sb strings.Builder
	sb.WriteString(n.Explain())
	sb.WriteString("\n")
	formatBody(n, "", &sb)
	return sb.String()
}

func formatBody(n Node, prefix string, sb *strings.Builder) {
	var details []string
	if d, ok := n.(detailer); ok {
		details = d.Details()
	}
	children := n.Children()

	for i, line := range details {
		last := i == len(details)-1 && len(children) == 0
		sb.WriteString(prefix)
		sb.WriteString(connector(last))
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	for i, child := range children {
		last := i == len(children)-1
		sb.WriteString(prefix)
		sb.WriteString(connector(last))
		sb.WriteString(child.Explain())
		sb.WriteString("\n")
		if last {
			formatBody(child, prefix+"   ", sb)
		} else {
			formatBody(child, prefix+"│  ", sb)
		}
	}
}

func connector(last bool) string {
	if last {
		return "└─ "
	}
	return "├─ "
}
