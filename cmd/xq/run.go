package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/deepnoodle-ai/xq"
	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PROGRAM [FILE...]",
		Short: "Run an assembled program over a stream of JSON inputs",
		Long: `Run assembles PROGRAM and runs it once for every JSON value read from
the given files, or from standard input when no files are given. Each result
is printed as it is produced. Query errors are reported on standard error and
do not stop the run; the exit status is 5 if any occurred.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(cmd, v, args[0], args[1:])
		},
	}
	flags := cmd.Flags()
	flags.BoolP("null-input", "n", false, "run once with null as the input")
	flags.StringP("output", "o", "json", "output format: json, yaml, text")
	flags.BoolP("compact", "c", false, "print JSON on a single line")
	flags.Int("limit", 0, "stop after N results per input (0 means no limit)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = v.BindPFlags(flags)
	return cmd
}

func loadProgram(path string) (*bytecode.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return xq.Assemble(string(src), xq.WithFilename(path))
}

func runProgram(cmd *cobra.Command, v *viper.Viper, path string, files []string) error {
	program, err := loadProgram(path)
	if err != nil {
		return err
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger, err := newLogger(v, stderr)
	if err != nil {
		return err
	}
	useColor := configureColor(v, stdout)
	out, err := newPrinter(stdout, v.GetString("output"), v.GetBool("compact"), useColor)
	if err != nil {
		return err
	}
	opts := []xq.Option{
		xq.WithLogger(logger),
		xq.WithLimit(v.GetInt("limit")),
	}

	queryErrors := 0
	runInput := func(input value.Value) error {
		for result, err := range xq.Stream(cmd.Context(), program, input, opts...) {
			if err != nil {
				var qerr *errz.QueryError
				if !errors.As(err, &qerr) {
					return err
				}
				queryErrors++
				fmt.Fprintln(stderr, color.RedString("xq: error: %s", err))
				continue
			}
			if err := out.print(result); err != nil {
				return err
			}
		}
		return nil
	}

	if v.GetBool("null-input") {
		err = runInput(value.Null{})
	} else {
		err = eachInput(cmd.InOrStdin(), files, runInput)
	}
	if err != nil {
		return err
	}
	if queryErrors > 0 {
		return &exitError{code: exitQueryError}
	}
	return nil
}

// eachInput calls fn for every JSON value in the named files, or in stdin
// when there are none.
func eachInput(stdin io.Reader, files []string, fn func(value.Value) error) error {
	if len(files) == 0 {
		return eachValue(stdin, "<stdin>", fn)
	}
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		err = eachValue(f, name, fn)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func eachValue(r io.Reader, name string, fn func(value.Value) error) error {
	dec := value.NewDecoder(r)
	for {
		input, err := dec.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: invalid JSON input: %w", name, err)
		}
		if err := fn(input); err != nil {
			return err
		}
	}
}
