package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the model columns and which form fields map onto them",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		enc := e.svc.Encoder()
		fmt.Fprintf(out, "model %s (%s)\n", e.bundle.Name, e.bundle.Kind)
		fmt.Fprintf(out, "columns (%d):\n", enc.Schema().Len())
		for i, col := range enc.Schema().Columns() {
			fmt.Fprintf(out, "  %3d  %s\n", i, col)
		}
		if dropped := enc.Dropped(); len(dropped) > 0 {
			fmt.Fprintf(out, "identifier columns removed (%d):\n", len(dropped))
			for _, col := range dropped {
				fmt.Fprintf(out, "       %s\n", col)
			}
		}
		if unmapped := enc.Unmapped(); len(unmapped) > 0 {
			fmt.Fprintf(out, "form columns missing from model (%d):\n", len(unmapped))
			for _, col := range unmapped {
				fmt.Fprintf(out, "       %s\n", col)
			}
		}
		return nil
	},
}
