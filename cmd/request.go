package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jdyer28/LSPI/pkg/planner"
	"github.com/jdyer28/LSPI/pkg/query"
)

// windowFlags restrict a request to a time range and a set of devices.
type windowFlags struct {
	start    string
	end      string
	entities []string
}

func addWindowFlags(c *cobra.Command, w *windowFlags) {
	c.Flags().StringVar(&w.start, "start", "", "Inclusive lower time bound (RFC 3339 or YYYY-MM-DD)")
	c.Flags().StringVar(&w.end, "end", "", "Exclusive upper time bound (RFC 3339 or YYYY-MM-DD)")
	c.Flags().StringSliceVar(&w.entities, "entity", nil, "Restrict to these device ids")
}

func (w windowFlags) bounds() (*time.Time, *time.Time, error) {
	start, err := parseBound("start", w.start)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseBound("end", w.end)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func parseBound(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return &t, nil
}

// requestFile is the YAML form of an aggregate request. Aggregates keep
// their document order:
//
//	table: readings
//	aggregates:
//	  pressure: [min, max]
//	  temp: mean
//	group_by: [site]
//	timestamp_column: evt_timestamp
//	time_grain: 15min
type requestFile struct {
	Table           string              `yaml:"table"`
	Schema          string              `yaml:"schema"`
	Dimension       string              `yaml:"dimension"`
	Aggregates      query.AggregateSpec `yaml:"aggregates"`
	GroupBy         []string            `yaml:"group_by"`
	TimestampColumn string              `yaml:"timestamp_column"`
	TimeGrain       string              `yaml:"time_grain"`
	Start           string              `yaml:"start"`
	End             string              `yaml:"end"`
	Entities        []string            `yaml:"entities"`
}

func loadRequestFile(path string) (planner.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return planner.Request{}, fmt.Errorf("read request: %w", err)
	}
	var f requestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return planner.Request{}, fmt.Errorf("parse request %s: %w", path, err)
	}
	start, end, err := windowFlags{start: f.Start, end: f.End}.bounds()
	if err != nil {
		return planner.Request{}, err
	}
	return planner.Request{
		Table:           f.Table,
		Schema:          f.Schema,
		Dimension:       f.Dimension,
		Aggregates:      f.Aggregates,
		GroupBy:         f.GroupBy,
		TimestampColumn: f.TimestampColumn,
		TimeGrain:       f.TimeGrain,
		Start:           start,
		End:             end,
		Entities:        f.Entities,
	}, nil
}

func requestFromStatement(input string) (planner.Request, error) {
	st, err := query.ParseStatement(input)
	if err != nil {
		return planner.Request{}, err
	}
	return planner.Request{
		Table:           st.Table,
		Schema:          st.Schema,
		Dimension:       st.Dimension,
		Aggregates:      st.Aggregates,
		GroupBy:         st.GroupBy,
		TimestampColumn: st.Timestamp,
		TimeGrain:       st.Grain,
	}, nil
}

// buildRequest reads a request from a file or a single statement argument,
// then applies window flags and configured defaults.
func buildRequest(args []string, file string, w windowFlags) (planner.Request, error) {
	var (
		req planner.Request
		err error
	)
	switch {
	case file != "" && len(args) > 0:
		return req, fmt.Errorf("use either a request argument or --file, not both")
	case file != "":
		req, err = loadRequestFile(file)
	case len(args) == 1:
		req, err = requestFromStatement(args[0])
	default:
		return req, fmt.Errorf("a request argument or --file is required")
	}
	if err != nil {
		return req, err
	}

	start, end, err := w.bounds()
	if err != nil {
		return req, err
	}
	if start != nil {
		req.Start = start
	}
	if end != nil {
		req.End = end
	}
	if len(w.entities) > 0 {
		req.Entities = w.entities
	}
	if req.Schema == "" {
		req.Schema = cfg.Schema
	}
	if req.TimestampColumn == "" {
		req.TimestampColumn = cfg.TimestampColumn
	}
	return req, nil
}
