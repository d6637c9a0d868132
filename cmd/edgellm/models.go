package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"edgellm/internal/registry"
	"edgellm/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	var (
		dir    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the GGUF models in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dir") {
				a.cfg.ModelsDir = dir
			}
			models, err := registry.LoadDir(a.cfg.ModelsDir)
			if err != nil {
				if models == nil {
					return err
				}
				a.log.Warn().Err(err).Msg("skipped unreadable models")
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if models == nil {
					models = []types.Model{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFAMILY\tCONTEXT\tNAME")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID, m.Family, m.ContextSize, m.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (overrides models_dir)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
