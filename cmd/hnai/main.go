package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hnai",
		Short: "Ingest HackerNews data and chat with it",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(ingestCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(userCmd())
	root.AddCommand(statsCmd())

	return root
}

func ingestCmd() *cobra.Command {
	var (
		from      int64
		to        int64
		discovery string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the fetch-transform-load pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(from, to, discovery, limit)
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "first item id of an explicit range")
	cmd.Flags().Int64Var(&to, "to", 0, "last item id of an explicit range")
	cmd.Flags().StringVar(&discovery, "discovery", "", "id discovery mode: incremental, topstories, jobstories or frontpage (default: from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max items for discovery modes (default: from config)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chatbot HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with periodic ingest and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func userCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "user <username>",
		Short: "Show a stored user's profile and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUser(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and the ingest cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}
