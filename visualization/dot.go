// Package visualization renders statewise graphs as Graphviz diagrams
package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/statewise"
)

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	ShowPseudostates    bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	CompositeStateStyle string
	ParallelStateStyle  string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		ShowPseudostates:    true,
		RankDirection:       "TB",
		NodeShape:           "box",
		CompositeStateStyle: "rounded,filled",
		ParallelStateStyle:  "dashed,filled",
	}
}

const (
	startNode = "__start"
	finalNode = "__final"
)

// DOTVisitor writes a graph in DOT format while it is walked. Composite
// states become clusters holding a point node that stands in for the
// composite as an edge endpoint.
type DOTVisitor[S, E comparable, C any] struct {
	statewise.BaseVisitor[S, E, C]

	options  DOTOptions
	nodes    strings.Builder
	edges    strings.Builder
	hasFinal bool
}

// NewDOTVisitor creates a visitor writing with opts
func NewDOTVisitor[S, E comparable, C any](opts DOTOptions) *DOTVisitor[S, E, C] {
	return &DOTVisitor[S, E, C]{options: opts}
}

func nodeID(id any) string {
	return fmt.Sprintf("%q", fmt.Sprint(id))
}

func clusterID(id any) string {
	return fmt.Sprintf("%q", "cluster_"+fmt.Sprint(id))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth+1)
}

func (v *DOTVisitor[S, E, C]) VisitGraphEntry(g *statewise.Graph[S, E, C]) {
	if v.options.ShowPseudostates {
		fmt.Fprintf(&v.nodes, "  %s [shape=point width=0.2];\n", startNode)
		fmt.Fprintf(&v.edges, "  %s -> %s;\n", startNode, nodeID(g.InitialStateID()))
	}
}

func (v *DOTVisitor[S, E, C]) VisitGraphExit(*statewise.Graph[S, E, C]) {
	if v.hasFinal {
		fmt.Fprintf(&v.nodes, "  %s [shape=doublecircle label=\"\" width=0.2 style=filled fillcolor=black];\n", finalNode)
	}
}

func (v *DOTVisitor[S, E, C]) VisitStateEntry(s *statewise.State[S, E, C]) {
	pad := indent(s.Depth())
	id := s.ID()

	if !s.IsComposite() {
		shape, fill := v.options.NodeShape, "lightblue"
		if s.IsFinal() {
			shape, fill = "doublecircle", "lightcoral"
		}
		fmt.Fprintf(&v.nodes, "%s%s [shape=%s style=\"rounded,filled\" fillcolor=%s];\n", pad, nodeID(id), shape, fill)
		return
	}

	style, fill := v.options.CompositeStateStyle, "lightcyan"
	label := fmt.Sprint(id)
	if s.IsParallel() {
		style, fill = v.options.ParallelStateStyle, "lavender"
		label += " ||"
	}
	if h := s.HistoryType(); h != statewise.NoHistory {
		label += fmt.Sprintf(" (H:%s)", h)
	}
	fmt.Fprintf(&v.nodes, "%ssubgraph %s {\n", pad, clusterID(id))
	fmt.Fprintf(&v.nodes, "%s  label=%q;\n%s  style=%q;\n%s  fillcolor=%s;\n", pad, label, pad, style, pad, fill)
	fmt.Fprintf(&v.nodes, "%s  %s [shape=point width=0.1];\n", pad, nodeID(id))

	if v.options.ShowPseudostates && !s.IsParallel() {
		if initial := s.InitialChild(); initial != nil {
			fmt.Fprintf(&v.edges, "  %s -> %s [style=dotted arrowhead=open];\n", nodeID(id), nodeID(initial.ID()))
		}
	}
}

func (v *DOTVisitor[S, E, C]) VisitStateExit(s *statewise.State[S, E, C]) {
	if s.IsComposite() {
		fmt.Fprintf(&v.nodes, "%s}\n", indent(s.Depth()))
	}
}

func (v *DOTVisitor[S, E, C]) VisitTransitionEntry(t *statewise.Transition[S, E, C]) {
	target := finalNode
	if t.Target() != nil {
		target = nodeID(t.Target().ID())
	} else {
		v.hasFinal = true
	}

	var label strings.Builder
	if event, ok := t.Event(); ok {
		fmt.Fprint(&label, event)
	} else {
		label.WriteString("done")
	}
	if v.options.ShowGuardConditions {
		if name := t.Condition().Name(); name != "" && name != "Always" {
			fmt.Fprintf(&label, " [%s]", name)
		}
	}
	if v.options.ShowActions && len(t.Actions()) > 0 {
		names := make([]string, 0, len(t.Actions()))
		for _, a := range t.Actions() {
			names = append(names, a.Name())
		}
		fmt.Fprintf(&label, " / %s", strings.Join(names, ", "))
	}

	attrs := []string{fmt.Sprintf("label=%q", label.String())}
	switch t.Type() {
	case statewise.Internal:
		attrs = append(attrs, "style=dashed")
	case statewise.Local:
		attrs = append(attrs, "style=dotted")
	}
	fmt.Fprintf(&v.edges, "  %s -> %s [%s];\n", nodeID(t.Source().ID()), target, strings.Join(attrs, " "))
}

// String returns the DOT document for everything visited so far
func (v *DOTVisitor[S, E, C]) String() string {
	var dot strings.Builder
	dot.WriteString("digraph StateMachine {\n")
	fmt.Fprintf(&dot, "  rankdir=%s;\n  compound=true;\n", v.options.RankDirection)
	dot.WriteString("  node [fontsize=11];\n  edge [fontsize=10];\n\n")
	dot.WriteString(v.nodes.String())
	dot.WriteString("\n")
	dot.WriteString(v.edges.String())
	dot.WriteString("}\n")
	return dot.String()
}

// DOTGenerator generates Graphviz DOT representations of a graph
type DOTGenerator[S, E comparable, C any] struct {
	graph   *statewise.Graph[S, E, C]
	options DOTOptions
}

// NewDOTGenerator creates a new DOT generator for g
func NewDOTGenerator[S, E comparable, C any](g *statewise.Graph[S, E, C], options ...DOTOptions) *DOTGenerator[S, E, C] {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	return &DOTGenerator[S, E, C]{graph: g, options: opts}
}

// Generate creates a DOT representation of the graph
func (g *DOTGenerator[S, E, C]) Generate() (string, error) {
	if g.graph == nil {
		return "", fmt.Errorf("no graph to render")
	}
	v := NewDOTVisitor[S, E, C](g.options)
	g.graph.Accept(v)
	return v.String(), nil
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator[S, E, C]) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG renders the graph to SVG by calling the Graphviz dot command
func (g *DOTGenerator[S, E, C]) GenerateSVG() (string, error) {
	content, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(content)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}
	return out.String(), nil
}
