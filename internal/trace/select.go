package trace

import "loglens/internal/record"

// Summary is one distinct trace id and the number of records carrying it.
type Summary struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// IDs lists the distinct trace ids of records in first-seen order.
func IDs(records []record.Record, cfg Config) []Summary {
	res := newResolver(cfg)
	idx := make(map[string]int)
	var out []Summary
	for _, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		id := res.traceID.id(s.Fields)
		if id == "" {
			continue
		}
		if i, ok := idx[id]; ok {
			out[i].Count++
			continue
		}
		idx[id] = len(out)
		out = append(out, Summary{ID: id, Count: 1})
	}
	return out
}

// Records returns the records belonging to traceID, in input order.
func Records(records []record.Record, cfg Config, traceID string) []record.Record {
	if traceID == "" {
		return nil
	}
	res := newResolver(cfg)
	var out []record.Record
	for _, r := range records {
		if s, ok := r.(record.Structured); ok && res.traceID.id(s.Fields) == traceID {
			out = append(out, r)
		}
	}
	return out
}

// ServiceRecords returns the records attributed to service, in input
// order. Records without a service belong to UnknownService.
func ServiceRecords(records []record.Record, cfg Config, service string) []record.Record {
	res := newResolver(cfg)
	var out []record.Record
	for _, r := range records {
		s, ok := r.(record.Structured)
		if !ok {
			continue
		}
		svc := res.service.name(s.Fields)
		if svc == "" {
			svc = UnknownService
		}
		if svc == service {
			out = append(out, r)
		}
	}
	return out
}
