package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/deepnoodle-ai/xq/value"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

func printError(msg string) {
	fmt.Fprintln(os.Stderr, red(msg))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// configureColor decides whether output written to w is colorized.
func configureColor(v *viper.Viper, w io.Writer) bool {
	if v.GetBool("no-color") {
		color.NoColor = true
		return false
	}
	return !color.NoColor && isTerminal(w)
}

func newLogger(v *viper.Viper, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log-level")))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", v.GetString("log-level"))
	}
	if level == zerolog.TraceLevel {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    v.GetBool("no-color") || !isTerminal(w),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

var outputFormats = []string{"json", "yaml", "text"}

// printer writes results in the selected output format.
type printer struct {
	w       io.Writer
	format  string
	compact bool
	color   bool
	count   int
}

func newPrinter(w io.Writer, format string, compact, useColor bool) (*printer, error) {
	format = strings.ToLower(format)
	for _, f := range outputFormats {
		if f == format {
			return &printer{w: w, format: format, compact: compact, color: useColor}, nil
		}
	}
	return nil, fmt.Errorf("unknown output format: %s (expected one of %s)",
		format, strings.Join(outputFormats, ", "))
}

func (p *printer) print(v value.Value) error {
	out, err := p.render(v)
	if err != nil {
		return err
	}
	if p.format == "yaml" && p.count > 0 {
		if _, err := io.WriteString(p.w, "---\n"); err != nil {
			return err
		}
	}
	p.count++
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(p.w, out)
	return err
}

func (p *printer) render(v value.Value) (string, error) {
	switch p.format {
	case "yaml":
		out, err := value.ToYAML(v)
		return string(out), err
	case "text":
		if s, ok := v.(value.String); ok {
			return string(s), nil
		}
		return v.String(), nil
	}
	if p.compact {
		out, err := value.ToJSON(v)
		return string(out), err
	}
	if p.color {
		f := prettyjson.NewFormatter()
		f.Indent = 2
		out, err := f.Marshal(value.ToAny(v))
		return string(out), err
	}
	out, err := value.ToIndentedJSON(v, "  ")
	return string(out), err
}
