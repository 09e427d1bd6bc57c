package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"binocular/internal/types"

	"gopkg.in/yaml.v3"
)

// encode writes v as indented JSON or YAML
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", format)
	}
}

// writeList renders a listing. Icons are dropped unless asked for; a data
// URI per row drowns everything else.
func writeList(w io.Writer, list types.WindowList, format string, icons bool) error {
	if !icons {
		for i := range list.Windows {
			list.Windows[i].Icon = nil
		}
	}

	if format == "table" {
		return printWindowsTable(w, list.Windows)
	}
	return encode(w, format, list)
}

func printWindowsTable(w io.Writer, windows []types.WindowRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "HANDLE\tPID\tPROCESS\tTITLE")
	fmt.Fprintln(tw, "------\t---\t-------\t-----")

	for _, rec := range windows {
		process := "-"
		if rec.ProcessName != nil {
			process = *rec.ProcessName
		}
		fmt.Fprintf(tw, "0x%x\t%d\t%s\t%s\n", rec.Handle, rec.ProcessID, process, rec.Title)
	}

	return tw.Flush()
}
