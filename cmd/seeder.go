package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/emspay-gateway/internal/order"
	orderPostgres "github.com/frahmantamala/emspay-gateway/internal/order/postgres"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample orders",
	Long:  `Seed the database with pending orders that can be taken through checkout during development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()

		if clearData {
			if _, err := db.ExecContext(ctx, "DELETE FROM order_meta"); err != nil {
				log.Fatalf("failed to clear order meta: %v", err)
			}
			if _, err := db.ExecContext(ctx, "DELETE FROM orders"); err != nil {
				log.Fatalf("failed to clear orders: %v", err)
			}
			fmt.Println("Cleared existing orders")
		}

		orders := order.NewService(orderPostgres.NewOrderRepository(gormDB), logger.LoggerWrapper())

		samples := []struct {
			Total    string
			Currency string
		}{
			{"49.99", "EUR"},
			{"120.00", "USD"},
			{"15.50", "GBP"},
		}

		for _, s := range samples {
			o := order.NewOrder(decimal.RequireFromString(s.Total), s.Currency)
			if err := orders.Create(ctx, o); err != nil {
				log.Fatalf("failed to insert %s %s order: %v", s.Total, s.Currency, err)
			}
			fmt.Printf("Seeded order %d: %s %s (key %s)\n", o.ID, o.ChargeTotal(), o.Currency, o.OrderKey)
		}
	},
}
