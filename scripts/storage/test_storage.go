// Seeds and reads back the settings table used to override environment config.
package main

import (
	"flag"
	"log"
	"os"

	"gorm.io/gorm/clause"

	"github.com/stake-plus/veritrust/src/config"
	"github.com/stake-plus/veritrust/src/data"
)

var (
	nameFlag  = flag.String("name", "trend_window", "Setting name to write")
	valueFlag = flag.String("value", "", "Setting value (empty = read only)")
)

func main() {
	flag.Parse()

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Fatal("MYSQL_DSN is not set")
	}
	db, err := data.ConnectMySQL(dsn)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	if err := data.MigrateSettings(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if *valueFlag != "" {
		row := data.Setting{Name: *nameFlag, Value: *valueFlag, Active: 1}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "active"}),
		}).Create(&row).Error
		if err != nil {
			log.Fatalf("upsert %s: %v", *nameFlag, err)
		}
	}

	if err := data.LoadSettings(db); err != nil {
		log.Fatalf("load settings: %v", err)
	}
	cfg := config.Load()

	log.Printf("Setting %s = %q", *nameFlag, data.GetSetting(*nameFlag))
	log.Printf("Effective config:")
	log.Printf("  Provider: %s", cfg.AI.Provider)
	log.Printf("  Model: %s", cfg.AI.Model)
	log.Printf("  Session TTL: %v", cfg.SessionTTL)
	log.Printf("  Trend window: %d", cfg.TrendWindow)
	log.Printf("  Ledger capacity: %d", cfg.LedgerCap)
	log.Printf("  Rate limit: %d per %v", cfg.RateLimit, cfg.RateWindow)
}
