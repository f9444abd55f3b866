package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/shelf-go/internal/core"
	"github.com/vrsandeep/shelf-go/internal/covers"
	"github.com/vrsandeep/shelf-go/internal/library"
	"github.com/vrsandeep/shelf-go/internal/store"
)

var version = "dev"

var (
	// flags
	configFile string

	app        *core.App
	st         *store.Store
	libService *library.Service
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (default ./config.yml)")
}

var RootCmd = cobra.Command{
	Use:          "shelf-cli",
	Short:        "Manage a shelf-go library from the command line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		app, err = core.New(configFile, version)
		if err != nil {
			return err
		}
		st = store.New(app.DB())
		libService = library.NewStoreService(st, app.WsHub(), covers.NewStore(app.Config().Covers.Path))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

// printJSON writes v to the command output as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}
