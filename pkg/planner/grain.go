package planner

import (
	"regexp"
	"strconv"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
)

// BucketKind classifies how a time grain is evaluated.
type BucketKind int

const (
	// NoBucket groups by the raw timestamp.
	NoBucket BucketKind = iota + 1
	// PushDown groups by a bucket expression evaluated by the store.
	PushDown
	// Fallback fetches raw rows for resampling after retrieval.
	Fallback
)

func (k BucketKind) String() string {
	switch k {
	case NoBucket:
		return "none"
	case PushDown:
		return "push-down"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// BucketPlan is the outcome of grain resolution. Label is set for NoBucket
// and PushDown; Frequency only for Fallback.
type BucketPlan struct {
	Kind      BucketKind
	Label     plan.Labeled
	Frequency string
}

var (
	minuteGrain = regexp.MustCompile(`^([1-9][0-9]*)min$`)
	hourGrain   = regexp.MustCompile(`^([1-9][0-9]*)H$`)

	calendarGrains = map[string]plan.BucketUnit{
		"day":   plan.Day,
		"week":  plan.Week,
		"month": plan.Month,
		"year":  plan.Year,
	}
)

// ResolveGrain decides whether grain can be computed by the store.
// Every bucket is labelled with the timestamp column name.
func ResolveGrain(table *database.TableRef, timestamp, grain string) (BucketPlan, error) {
	ts, err := factColumn(table, timestamp)
	if err != nil {
		return BucketPlan{}, err
	}

	if grain == timestamp {
		return BucketPlan{Kind: NoBucket, Label: plan.Labeled{Expr: ts, Alias: timestamp}}, nil
	}

	bucket := func(unit plan.BucketUnit, step int) BucketPlan {
		return BucketPlan{
			Kind:  PushDown,
			Label: plan.Labeled{Expr: plan.BucketExpr{Arg: ts, Unit: unit, Step: step}, Alias: timestamp},
		}
	}

	if m := minuteGrain.FindStringSubmatch(grain); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return bucket(plan.Minute, n), nil
		}
	}
	if m := hourGrain.FindStringSubmatch(grain); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return bucket(plan.Hour, n), nil
		}
	}
	if unit, ok := calendarGrains[grain]; ok {
		return bucket(unit, 1), nil
	}
	return BucketPlan{Kind: Fallback, Frequency: grain}, nil
}
