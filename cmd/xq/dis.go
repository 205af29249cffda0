package main

import (
	"github.com/deepnoodle-ai/xq/dis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDisCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "dis PROGRAM",
		Short: "Disassemble an assembled program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			configureColor(v, cmd.OutOrStdout())
			dis.Print(dis.Disassemble(program), cmd.OutOrStdout())
			return nil
		},
	}
}
