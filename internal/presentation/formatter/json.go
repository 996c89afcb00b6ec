package formatter

import (
	"io"
	"os"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct {
	out io.Writer
}

func NewJSONFormatter(out io.Writer) *JSONFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &JSONFormatter{out: out}
}

// Format writes v as indented JSON.
func (f *JSONFormatter) Format(v any) error {
	encoder := sonic.ConfigStd.NewEncoder(f.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatLine writes v as a single line of JSON.
func (f *JSONFormatter) FormatLine(v any) error {
	return sonic.ConfigStd.NewEncoder(f.out).Encode(v)
}
