package cli

import (
	"encoding/json"
	"io"
	"os"
)

var stdout io.Writer = os.Stdout

const defaultSampleFile = "sample-files/sample.pdf"

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdoutIsTTY() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func fileArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return defaultSampleFile
}
