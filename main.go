package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/petrolscout/stations-api/cmd"
)

func main() {
	var dbPath string
	var port int
	var debug bool
	var output string

	rootCmd := &cobra.Command{
		Use:   "stations-api",
		Short: "Petrol station directory API",
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/stations.db", "path to the sqlite cache database")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(dbPath, port, debug)
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "expose pprof endpoints")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch the station list once and prime the cache",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Import(dbPath)
		},
	}

	faviconsCmd := &cobra.Command{
		Use:   "favicons",
		Short: "Refresh retailer favicons by scraping their homepages",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Favicons(output)
		},
	}
	faviconsCmd.Flags().StringVar(&output, "output", "retailers.csv", "output CSV file")

	rootCmd.AddCommand(serveCmd, importCmd, faviconsCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
