package kripke

import (
	"fmt"
	"io"
	"strings"
)

// DiagramOption configures diagram generation.
type DiagramOption func(*diagramOptions)

type diagramOptions struct {
	edgeLabeler func(from, to StateID) string
	showLabels  bool
}

// WithEdgeLabeler sets a custom edge label function.
func WithEdgeLabeler(f func(from, to StateID) string) DiagramOption {
	return func(opts *diagramOptions) {
		opts.edgeLabeler = f
	}
}

// WithPropositions annotates each state with the propositions holding in it.
func WithPropositions() DiagramOption {
	return func(opts *diagramOptions) {
		opts.showLabels = true
	}
}

func buildOptions(options []DiagramOption) *diagramOptions {
	opts := &diagramOptions{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// WriteMermaid writes a Mermaid stateDiagram-v2 representation of g to w.
func WriteMermaid(g *Graph, w io.Writer, options ...DiagramOption) error {
	opts := buildOptions(options)

	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")

	for _, s := range g.initial {
		fmt.Fprintf(&sb, "    [*] --> %s\n", s)
	}

	for _, from := range g.order {
		for _, to := range g.succ[from] {
			label := ""
			if opts.edgeLabeler != nil {
				label = opts.edgeLabeler(from, to)
			}
			if label != "" {
				fmt.Fprintf(&sb, "    %s --> %s: %s\n", from, to, label)
			} else {
				fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			}
		}
	}

	if opts.showLabels {
		sb.WriteString("\n")
		for _, s := range g.order {
			if props := g.Labels(s); len(props) > 0 {
				fmt.Fprintf(&sb, "    %s: {%s}\n", s, strings.Join(props, ", "))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteGraphviz writes a Graphviz DOT representation of g to w.
func WriteGraphviz(g *Graph, w io.Writer, options ...DiagramOption) error {
	opts := buildOptions(options)

	var sb strings.Builder
	sb.WriteString("digraph Kripke {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n\n")

	// Invisible start node pointing to each initial state
	sb.WriteString("  start [shape=point];\n")
	for _, s := range g.initial {
		fmt.Fprintf(&sb, "  start -> %q;\n", s)
	}
	sb.WriteString("\n")

	for _, s := range g.order {
		props := g.Labels(s)
		if opts.showLabels && len(props) > 0 {
			fmt.Fprintf(&sb, "  %q [label=\"%s\\n{%s}\"];\n", s, s, strings.Join(props, ", "))
		} else {
			fmt.Fprintf(&sb, "  %q;\n", s)
		}
	}
	sb.WriteString("\n")

	for _, from := range g.order {
		for _, to := range g.succ[from] {
			label := ""
			if opts.edgeLabeler != nil {
				label = opts.edgeLabeler(from, to)
			}
			if label != "" {
				fmt.Fprintf(&sb, "  %q -> %q [label=%q];\n", from, to, label)
			} else {
				fmt.Fprintf(&sb, "  %q -> %q;\n", from, to)
			}
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
