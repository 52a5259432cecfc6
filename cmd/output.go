package cmd

import (
	"encoding/json"
	"io"

	"github.com/jdyer28/LSPI/pkg/database"
)

// writeRows writes one JSON object per row, keys in column order.
func writeRows(w io.Writer, rs *database.RowSet) error {
	encoder := json.NewEncoder(w)
	if Pretty {
		encoder.SetIndent("", "  ")
	}
	for _, r := range rs.Rows() {
		if err := encoder.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
