package data

import (
	"sync"

	"gorm.io/gorm"
)

// Setting is one row of the settings table. Active rows override environment values.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// MigrateSettings creates the settings table if it is missing.
func MigrateSettings(db *gorm.DB) error {
	return db.AutoMigrate(&Setting{})
}

// LoadSettings loads all active settings from the database into cache
func LoadSettings(db *gorm.DB) error {
	var settings []Setting
	if err := db.Where("active = ?", 1).Find(&settings).Error; err != nil {
		return err
	}
	SetSettings(settings)
	return nil
}

// SetSettings replaces the cache.
func SetSettings(settings []Setting) {
	cache := make(map[string]string, len(settings))
	for _, s := range settings {
		cache[s.Name] = s.Value
	}

	settingsMu.Lock()
	settingsCache = cache
	settingsMu.Unlock()
}

// GetSetting retrieves a setting value from cache (call LoadSettings first)
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}
