package events

// ByMinPriority returns the subset of ev at or above min, in original
// order: critical is kept by every threshold, verbose only when min
// itself is verbose. Used to cut a chatty agent's event log down to the
// critical/important subset for display without touching the underlying
// log, the same selective-view idea as filtering a message stream down
// to one MessageType, applied to a priority tier instead of a type set.
func ByMinPriority(ev []Event, min Priority) []Event {
	rank := map[Priority]int{PriorityVerbose: 0, PriorityImportant: 1, PriorityCritical: 2}
	threshold, ok := rank[min]
	if !ok {
		return ev
	}
	out := make([]Event, 0, len(ev))
	for _, e := range ev {
		if rank[e.Type.Priority()] >= threshold {
			out = append(out, e)
		}
	}
	return out
}

// ByType returns the subset of ev whose Type is in types.
func ByType(ev []Event, types ...Type) []Event {
	allowed := make(map[Type]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	out := make([]Event, 0, len(ev))
	for _, e := range ev {
		if allowed[e.Type] {
			out = append(out, e)
		}
	}
	return out
}
