package compose

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is anything that can appear in brackets on the input side of a chain.
type Label interface {
	String() string
}

// Pad is a named connection between two chains, allocated by a Graph.
type Pad string

func (p Pad) String() string { return string(p) }

// Stream references a stream of one of the engine's inputs, e.g. 0:v.
type Stream struct {
	Input int
	Kind  string
}

func (s Stream) String() string { return strconv.Itoa(s.Input) + ":" + s.Kind }

// Chain is one statement of the filter graph: input labels, a comma-joined
// filter list and output pads.
type Chain struct {
	Inputs  []Label
	Filters []string
	Outputs []Pad
}

func (c Chain) String() string {
	var b strings.Builder
	for _, in := range c.Inputs {
		b.WriteString("[" + in.String() + "]")
	}
	b.WriteString(strings.Join(c.Filters, ","))
	for _, out := range c.Outputs {
		b.WriteString("[" + out.String() + "]")
	}
	return b.String()
}

// Graph is a filter graph builder. Pads come from a per-prefix counter and
// every pad must be produced exactly once and consumed exactly once, either
// by a later chain or as a mapped output. Violations are collected and
// reported by Build.
type Graph struct {
	inputs    int
	chains    []Chain
	counters  map[string]int
	allocated []Pad
	produced  map[Pad]int
	consumed  map[Pad]int
	mapped    []Pad
	problems  []string
}

// NewGraph returns a builder for a program with the given number of inputs.
func NewGraph(inputs int) *Graph {
	return &Graph{
		inputs:   inputs,
		counters: make(map[string]int),
		produced: make(map[Pad]int),
		consumed: make(map[Pad]int),
	}
}

// Pad allocates the next pad name for prefix: v0, v1, a0 and so on.
func (g *Graph) Pad(prefix string) Pad {
	n := g.counters[prefix]
	g.counters[prefix] = n + 1
	p := Pad(prefix + strconv.Itoa(n))
	g.allocated = append(g.allocated, p)
	return p
}

// Named allocates a pad with a fixed name, used for the final outputs.
func (g *Graph) Named(name string) Pad {
	p := Pad(name)
	for _, a := range g.allocated {
		if a == p {
			g.problem("pad [%s] allocated twice", name)
			return p
		}
	}
	g.allocated = append(g.allocated, p)
	return p
}

// Add appends a chain. Chains must be added in dependency order.
func (g *Graph) Add(inputs []Label, filters []string, outputs ...Pad) {
	for _, in := range inputs {
		switch l := in.(type) {
		case Pad:
			g.consume(l)
		case Stream:
			if l.Input < 0 || l.Input >= g.inputs {
				g.problem("stream [%s] references missing input", l)
			}
		}
	}
	for _, out := range outputs {
		g.produce(out)
	}
	if len(filters) == 0 {
		g.problem("chain producing %v has no filters", outputs)
	}
	g.chains = append(g.chains, Chain{Inputs: inputs, Filters: filters, Outputs: outputs})
}

// Map marks a pad as a final program output.
func (g *Graph) Map(p Pad) {
	g.consume(p)
	g.mapped = append(g.mapped, p)
}

func (g *Graph) produce(p Pad) {
	if !g.isAllocated(p) {
		g.problem("pad [%s] was not allocated", p)
	}
	g.produced[p]++
	if g.produced[p] > 1 {
		g.problem("pad [%s] declared more than once", p)
	}
}

func (g *Graph) consume(p Pad) {
	if g.produced[p] == 0 {
		g.problem("pad [%s] referenced before it was declared", p)
	}
	g.consumed[p]++
	if g.consumed[p] > 1 {
		g.problem("pad [%s] consumed more than once", p)
	}
}

func (g *Graph) isAllocated(p Pad) bool {
	for _, a := range g.allocated {
		if a == p {
			return true
		}
	}
	return false
}

func (g *Graph) problem(format string, args ...any) {
	g.problems = append(g.problems, fmt.Sprintf(format, args...))
}

// Build checks the pad invariants and serializes the graph.
func (g *Graph) Build() (string, error) {
	problems := append([]string(nil), g.problems...)
	for _, p := range g.allocated {
		switch {
		case g.produced[p] == 0:
			problems = append(problems, fmt.Sprintf("pad [%s] allocated but never declared", p))
		case g.consumed[p] == 0:
			problems = append(problems, fmt.Sprintf("pad [%s] declared but never used", p))
		}
	}
	if len(problems) > 0 {
		return "", &GraphAssemblyError{Problems: problems}
	}

	parts := make([]string, len(g.chains))
	for i, c := range g.chains {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";"), nil
}

// Outputs returns the mapped pads in mapping order.
func (g *Graph) Outputs() []Pad {
	return append([]Pad(nil), g.mapped...)
}

// Chains returns a copy of the chains added so far.
func (g *Graph) Chains() []Chain {
	return append([]Chain(nil), g.chains...)
}
