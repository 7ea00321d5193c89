package trace

import (
	"loglens/internal/digester/level"
	"loglens/internal/record"
)

// ServiceNode is one service seen in the records.
type ServiceNode struct {
	ID          string `json:"id"`
	LogCount    int    `json:"logCount"`
	HasErrors   bool   `json:"hasErrors"`
	HasWarnings bool   `json:"hasWarnings"`
}

// ServiceEdge counts records of Target whose parent span belongs to
// Source.
type ServiceEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	RequestCount int    `json:"requestCount"`
}

// Graph is the service graph. Nodes and edges appear in the order they
// were first seen.
type Graph struct {
	Nodes []ServiceNode `json:"nodes"`
	Edges []ServiceEdge `json:"edges"`
}

type edgeKey struct{ source, target string }

// BuildGraph summarizes records as a service graph.
//
// The first pass counts records per service, raises the error and
// warning flags from each record's level, and maps span ids to services.
// The second pass links each record whose parent span is known to the
// parent's service, unless both are the same service. Plain-text records
// are ignored.
func BuildGraph(records []record.Record, cfg Config) Graph {
	res := newResolver(cfg)
	g := Graph{Nodes: []ServiceNode{}, Edges: []ServiceEdge{}}

	nodeIdx := make(map[string]int)
	spanService := make(map[string]string)
	services := make([]string, len(records))

	for i, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		svc := res.service.name(s.Fields)
		if svc == "" {
			svc = UnknownService
		}
		services[i] = svc
		if span := res.spanID.id(s.Fields); span != "" {
			spanService[span] = svc
		}

		n, ok := nodeIdx[svc]
		if !ok {
			n = len(g.Nodes)
			nodeIdx[svc] = n
			g.Nodes = append(g.Nodes, ServiceNode{ID: svc})
		}
		node := &g.Nodes[n]
		node.LogCount++
		lvl := level.Raw(s.Fields)
		if level.IsError(lvl) {
			node.HasErrors = true
		}
		if level.IsWarning(lvl) {
			node.HasWarnings = true
		}
	}

	edgeIdx := make(map[edgeKey]int)
	for i, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		parent := res.parentSpanID.id(s.Fields)
		if parent == "" {
			continue
		}
		from, ok := spanService[parent]
		if !ok || from == services[i] {
			continue
		}
		k := edgeKey{from, services[i]}
		e, ok := edgeIdx[k]
		if !ok {
			e = len(g.Edges)
			edgeIdx[k] = e
			g.Edges = append(g.Edges, ServiceEdge{ID: from + "->" + services[i], Source: from, Target: services[i]})
		}
		g.Edges[e].RequestCount++
	}
	return g
}
