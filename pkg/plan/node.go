package plan

// Walk visits n and its descendants depth-first, left before right.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}

// Leaves returns the single-table plans underneath p.
func Leaves(p *QueryPlan) []*QueryPlan {
	var out []*QueryPlan
	Walk(p, func(n Node) bool {
		qp, ok := n.(*QueryPlan)
		if ok && qp.Join() == nil {
			out = append(out, qp)
		}
		return true
	})
	return out
}
