package planner

import (
	"errors"

	"github.com/jdyer28/LSPI/pkg/plan"
)

const (
	leftRelation  = "a"
	rightRelation = "b"
)

// JoinAggregates equi-joins two aggregate plans. The output holds every
// right-hand alias, then every left column whose name no alias covers.
// When two right aliases share a name the first one listed is kept.
func JoinAggregates(left, right *plan.QueryPlan, keys []plan.KeyPair, rightAliases []plan.AliasPair) (*plan.QueryPlan, error) {
	if left == nil || right == nil {
		return nil, errors.New("join requires two plans")
	}
	if left.Fallback() {
		return nil, &FallbackNotJoinableError{Side: "left", Frequency: left.Frequency()}
	}
	if right.Fallback() {
		return nil, &FallbackNotJoinableError{Side: "right", Frequency: right.Frequency()}
	}
	if len(keys) == 0 {
		return nil, errors.New("join requires at least one key")
	}

	for _, k := range keys {
		if !left.HasColumn(k.Left) {
			return nil, &ColumnNotFoundError{Column: k.Left, Sources: []string{"left plan"}}
		}
		if !right.HasColumn(k.Right) {
			return nil, &ColumnNotFoundError{Column: k.Right, Sources: []string{"right plan"}}
		}
	}

	covered := make(map[string]bool, len(rightAliases))
	var projection []plan.Labeled
	var kept []plan.AliasPair
	for _, a := range rightAliases {
		if !right.HasColumn(a.Column) {
			return nil, &ColumnNotFoundError{Column: a.Column, Sources: []string{"right plan"}}
		}
		if covered[a.Alias] {
			continue
		}
		covered[a.Alias] = true
		kept = append(kept, a)
		projection = append(projection, plan.Labeled{
			Expr:  plan.RelationRef{Relation: rightRelation, Name: a.Column},
			Alias: a.Alias,
		})
	}
	for _, name := range left.Columns() {
		if covered[name] {
			continue
		}
		projection = append(projection, plan.Labeled{
			Expr:  plan.RelationRef{Relation: leftRelation, Name: name},
			Alias: name,
		})
	}

	return plan.NewJoin(plan.JoinSpec{
		Left:         left,
		Right:        right,
		Keys:         keys,
		RightAliases: kept,
	}, projection), nil
}
