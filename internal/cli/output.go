package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

func validateOutput(format string) error {
	switch format {
	case OutputText, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", format, OutputText, OutputJSON)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
