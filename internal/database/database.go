package database

import (
	"log"
	"sync"
	"time"

	"techfix-backend/configs"
	"techfix-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DBManager struct {
	DB *gorm.DB
}

var (
	instance *DBManager
	once     sync.Once
)

func GetDBManager() *DBManager {
	once.Do(func() {
		instance = &DBManager{}
		instance.initialize()
	})
	return instance
}

func (m *DBManager) initialize() {
	db, err := gorm.Open(mysql.Open(configs.AppConfig.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	m.DB = db

	if err := Migrate(m.DB); err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	// Set up connection pool
	sqlDB, err := m.DB.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Println("Database connection established successfully")
}

// Migrate creates or updates the schema for every model. Also used by
// tests against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Ticket{},
		&models.TicketComment{},
		&models.Quote{},
		&models.Testimonial{},
		&models.Service{},
		&models.JWTBlacklist{},
	)
}

// SeedAdminUser guarantees at least one ADMIN account exists so the
// panel is reachable on a fresh install. Idempotent.
func (m *DBManager) SeedAdminUser() {
	var count int64
	m.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(configs.AppConfig.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Warning: failed to hash seed admin password: %v", err)
		return
	}

	admin := models.User{
		Name:         configs.AppConfig.AdminName,
		Email:        configs.AppConfig.AdminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := m.DB.Create(&admin).Error; err != nil {
		log.Printf("Warning: failed to seed admin user: %v", err)
		return
	}
	log.Printf("Seeded admin user %s", admin.Email)
}
