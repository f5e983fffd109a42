// Package cmd defines the linkdepth command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "linkdepth",
		Short: "Domain-fair focused crawler frontier",
		Long: `linkdepth crawls a set of domains looking for specific target URLs,
scheduling requests through a domain-fair round-robin frontier with
per-domain priority queues, optional disk overflow, admission caps and
a gzip JSONL decision log.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	root.AddCommand(newCrawlCmd())
	root.AddCommand(newFrontierSizeCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
