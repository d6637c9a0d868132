package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"edgellm/internal/gguf"
)

// inspectReport is the JSON form of `edgellm inspect`.
type inspectReport struct {
	Path         string `json:"path"`
	Version      uint32 `json:"version"`
	Tensors      uint64 `json:"tensors"`
	Architecture string `json:"architecture,omitempty"`
	Name         string `json:"name,omitempty"`
	ContextSize  int    `json:"context_size,omitempty"`
	ChatTemplate bool   `json:"chat_template"`
	Keys         int    `json:"keys"`
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <model.gguf>",
		Short: "Print GGUF header metadata without loading the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := gguf.Open(args[0])
			if err != nil {
				return err
			}
			rep := inspectReport{
				Path:         args[0],
				Version:      md.Version,
				Tensors:      md.TensorCount,
				Architecture: md.Architecture(),
				Name:         md.Name(),
				Keys:         len(md.KV),
			}
			rep.ContextSize, _ = md.ContextSize()
			_, rep.ChatTemplate = md.ChatTemplate()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			fmt.Fprintf(out, "path:          %s\n", rep.Path)
			fmt.Fprintf(out, "gguf version:  %d\n", rep.Version)
			fmt.Fprintf(out, "tensors:       %d\n", rep.Tensors)
			fmt.Fprintf(out, "architecture:  %s\n", rep.Architecture)
			fmt.Fprintf(out, "name:          %s\n", rep.Name)
			fmt.Fprintf(out, "context size:  %d\n", rep.ContextSize)
			fmt.Fprintf(out, "chat template: %t\n", rep.ChatTemplate)
			if all {
				keys := make([]string, 0, len(md.KV))
				for k := range md.KV {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s = %s\n", k, preview(md.KV[k]))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Also list every metadata key")
	return cmd
}

// preview renders a metadata value on one line, shortening long strings.
func preview(v any) string {
	switch x := v.(type) {
	case string:
		x = strings.ReplaceAll(x, "\n", `\n`)
		if len(x) > 60 {
			x = x[:57] + "..."
		}
		return fmt.Sprintf("%q", x)
	case gguf.Array:
		return fmt.Sprintf("[%d items]", x.Len)
	}
	return fmt.Sprint(v)
}
