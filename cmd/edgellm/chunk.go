package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"edgellm/internal/rag"
	"edgellm/pkg/types"
)

func newChunkCmd(a *app) *cobra.Command {
	var (
		size, overlap int
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:     "chunk <file>",
		Short:   "Split a .txt, .md or .pdf file into overlapping word chunks",
		Example: "  edgellm chunk notes.pdf --size 200 --overlap 40 --json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("size") {
				a.cfg.Chunk.Size = size
			}
			if cmd.Flags().Changed("overlap") {
				a.cfg.Chunk.Overlap = overlap
			}
			sp, err := a.cfg.Splitter()
			if err != nil {
				return err
			}
			chunks, err := sp.SplitFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if chunks == nil {
					chunks = []string{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(types.ChunkResponse{Chunks: chunks})
			}
			for i, c := range chunks {
				fmt.Fprintf(out, "--- chunk %d ---\n%s\n", i+1, c)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", rag.DefaultChunkSize, "Chunk size in words")
	cmd.Flags().IntVar(&overlap, "overlap", rag.DefaultChunkOverlap, "Words shared by consecutive chunks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print chunks as JSON")
	return cmd
}
