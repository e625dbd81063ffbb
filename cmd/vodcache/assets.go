// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vodcache/internal/pipeline"
	"github.com/tomtom215/vodcache/internal/report"
)

func newAssetsCmd(g *globalFlags) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Resolve and cache the metadata of every asset in the usage logs",
		Long: `assets reads the usage logs and fills the asset metadata snapshot
without running the analyses. Run it ahead of analyze to warm the snapshot
while the Traxis service is reachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, inputKeys)
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			_, cat, err := p.FillCatalog(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			assets := cat.Assets()
			known := 0
			for _, a := range assets {
				if _, ok := a.KnownFilesize(); ok {
					known++
				}
			}
			fmt.Fprintf(w, "%d assets, %d with known size, average size %d Mb\n",
				len(assets), known, report.Mb(cat.AverageFilesize()))
			if list {
				for _, a := range assets {
					fmt.Fprintf(w, "%s\t%d Mb\trestart=%t\n", a.ID, report.Mb(cat.Filesize(a.ID)), a.RestartTV())
				}
			}
			return nil
		},
	}
	addInputFlags(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "print every asset with its size")
	return cmd
}
