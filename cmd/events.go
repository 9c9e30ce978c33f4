/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/nexcharge/apiserver/config"
	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/internal/mq"
	"github.com/nexcharge/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd follows charger change events on the configured broker.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail charger change events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		log.Info(ctx, "tailing charger events", "channel", cfg.MQ.ChargerChannel)
		err = queue.Subscribe(ctx, cfg.MQ.ChargerChannel, func(ctx context.Context, msg mq.Message) error {
			var event types.ChargerEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Malformed payloads are acked, not requeued.
				log.Warn(ctx, "skip malformed event", "id", msg.ID, "error", err)
				return nil
			}
			log.Info(ctx, "charger event",
				"id", msg.ID,
				"type", string(event.Type),
				"charger_id", event.ChargerID,
				"actor_id", event.ActorID,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
