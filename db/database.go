package db

import (
	"errors"
	"log"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ErrNoActiveProfile is returned when no profile is marked active.
var ErrNoActiveProfile = errors.New("no active profile; create one with 'profile create'")

// InitDatabase initializes the SQLite database connection and migrates models.
func InitDatabase(dbPath string) {
	var err error

	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      false,
			Colorful:                  true,
		},
	)

	DB, err = gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	err = DB.AutoMigrate(&Profile{}, &Mod{})
	if err != nil {
		log.Fatalf("failed to migrate database schema: %v", err)
	}
}

// ActiveProfile loads the currently active profile with its mods.
func ActiveProfile() (*Profile, error) {
	var profile Profile
	result := DB.Preload("Mods").Where("active = ?", true).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, result.Error
	}
	return &profile, nil
}

// SwitchProfile marks the named profile active and all others inactive.
func SwitchProfile(name string) (*Profile, error) {
	var profile Profile
	err := DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).First(&profile).Error; err != nil {
			return err
		}
		if err := tx.Model(&Profile{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&profile).Update("active", true).Error
	})
	if err != nil {
		return nil, err
	}
	profile.Active = true
	return &profile, nil
}
