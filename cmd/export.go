/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/nexcharge/apiserver/config"
	"github.com/nexcharge/apiserver/internal/db"
	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/internal/services"
	"github.com/nexcharge/apiserver/internal/storage"
	"github.com/nexcharge/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var exportKey string

// exportCmd writes the charger directory snapshot to object storage.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the charger directory to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Log)

		dbConn, err := db.Open(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer objects.Close()

		exporter := services.NewDirectoryExporter(store.NewChargerRepository(dbConn), objects)
		res, err := exporter.Export(ctx, exportKey)
		if err != nil {
			return err
		}

		log.Info(ctx, "directory exported",
			"bucket", res.Bucket,
			"key", res.Key,
			"chargers", res.Count,
			"bytes", res.Bytes,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportKey, "key", services.DefaultExportKey, "object key of the snapshot")
}
