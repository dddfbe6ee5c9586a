package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/emspay-gateway/internal/core/events"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish checkout events through the payment event handlers for debugging`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test checkout event",
	Long:      `Publish a payment.initiated or payment.redirect_prepared event to the registered handlers`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypePaymentInitiated, events.EventTypePaymentRedirectPrepared},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventOrderID int64
	eventMethod  string
)

func publishTestEvent(eventType string) error {
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	payment.NewEventHandler(lg).RegisterEventHandlers(eventBus)

	var event events.Event
	switch eventType {
	case events.EventTypePaymentInitiated:
		event = events.NewPaymentInitiatedEvent(eventOrderID, eventMethod, "978", time.Now().UTC().Format(order.TransactionTimeLayout), "UTC")
	case events.EventTypePaymentRedirectPrepared:
		event = events.NewRedirectPreparedEvent(eventOrderID, "emspay", "https://test.ipg-online.com/connect/gateway/processing", 0)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lg.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return err
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventOrderID, "order", 1, "Order ID carried by the event")
	publishEventCmd.Flags().StringVar(&eventMethod, "method", "M", "Payment method carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
