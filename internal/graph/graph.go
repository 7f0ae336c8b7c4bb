// Package graph builds a class reference graph over a set of parsed smali
// classes.
//
// Design goals:
//   - Deterministic output (sorted nodes/edges, deduped)
//   - Nodes are Java class names; array types collapse to their element class
//   - Primitive types and self-references produce no edges
//
// Edge kinds:
//   - extends, implements: class header
//   - field: field declarations and field access instructions
//   - invokes: method references in invoke-* instructions
//   - instantiates: new-instance, new-array, filled-new-array
//   - type: const-class, check-cast, instance-of, catch clauses, annotations
package graph

import (
	"encoding/json"
	"io"
	"sort"

	"smalikit/types"
)

// Edge kinds.
const (
	Extends      = "extends"
	Implements   = "implements"
	Field        = "field"
	Invokes      = "invokes"
	Instantiates = "instantiates"
	TypeRef      = "type"
)

// Edge is one directed reference between classes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Graph is a simple directed graph (no weights). Defined lists the classes
// that were part of the input; other nodes are only referenced.
type Graph struct {
	Nodes   []string `json:"nodes"`
	Defined []string `json:"defined"`
	Edges   []Edge   `json:"edges"`
}

type builder struct {
	nodes   map[string]struct{}
	defined map[string]struct{}
	edges   map[Edge]struct{}
}

// Build collects the references of every class.
func Build(classes []*types.SmaliClass) Graph {
	b := &builder{
		nodes:   make(map[string]struct{}, 256),
		defined: make(map[string]struct{}, len(classes)),
		edges:   make(map[Edge]struct{}, 512),
	}
	for _, c := range classes {
		from := c.Name.JavaType()
		b.nodes[from] = struct{}{}
		b.defined[from] = struct{}{}
		if c.Super != nil {
			b.addClass(from, *c.Super, Extends)
		}
		for _, iface := range c.Implements {
			b.addClass(from, iface, Implements)
		}
		b.annotations(from, c.Annotations)
		for _, f := range c.Fields {
			b.addType(from, f.Type, Field)
			b.annotations(from, f.Annotations)
		}
		for i := range c.Methods {
			b.method(from, &c.Methods[i])
		}
	}
	return b.graph()
}

func (b *builder) method(from string, m *types.Method) {
	b.annotations(from, m.Annotations)
	for _, p := range m.Params {
		b.annotations(from, p.Annotations)
	}
	for _, in := range m.Body {
		switch x := in.(type) {
		case types.InsnRegType:
			kind := TypeRef
			if x.Op == types.OpNewInstance {
				kind = Instantiates
			}
			b.addType(from, x.Type, kind)
		case types.InsnRegRegType:
			kind := TypeRef
			if x.Op == types.OpNewArray {
				kind = Instantiates
			}
			b.addType(from, x.Type, kind)
		case types.InsnRegListType:
			b.addType(from, x.Type, Instantiates)
		case types.InsnRegField:
			b.addType(from, x.Field.Owner, Field)
		case types.InsnRegRegField:
			b.addType(from, x.Field.Owner, Field)
		case types.InsnInvoke:
			b.addType(from, x.Method.Owner, Invokes)
		case types.InsnInvokePolymorphic:
			b.addType(from, x.Method.Owner, Invokes)
		case types.Catch:
			if x.Exception != nil {
				b.addClass(from, *x.Exception, TypeRef)
			}
		}
	}
}

func (b *builder) annotations(from string, anns []types.Annotation) {
	for _, a := range anns {
		b.addClass(from, a.Type, TypeRef)
	}
}

func (b *builder) addType(from string, t types.TypeSignature, kind string) {
	if t.Kind == types.KindArray && t.Elem != nil {
		t = *t.Elem
	}
	if t.Kind == types.KindObject {
		b.addClass(from, t.Class, kind)
	}
}

func (b *builder) addClass(from string, id types.ObjectIdentifier, kind string) {
	to := id.JavaType()
	if to == "" || to == from {
		return
	}
	b.nodes[to] = struct{}{}
	b.edges[Edge{From: from, To: to, Kind: kind}] = struct{}{}
}

func (b *builder) graph() Graph {
	edges := make([]Edge, 0, len(b.edges))
	for e := range b.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
	return Graph{Nodes: sortedSet(b.nodes), Defined: sortedSet(b.defined), Edges: edges}
}

// WriteJSON writes g as indented JSON.
func (g Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// Dependents lists the defined classes with an edge to name, sorted.
func (g Graph) Dependents(name string) []string {
	set := make(map[string]struct{})
	for _, e := range g.Edges {
		if e.To == name {
			set[e.From] = struct{}{}
		}
	}
	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
