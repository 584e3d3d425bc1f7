package config

import (
	"log"

	"nexbank/internal/adapters/persistence/models"
	"nexbank/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedOfficer(); err != nil {
		log.Printf("⚠️ Officer seeder skipped: %v", err)
	}
	if err := s.seedDemoCustomer(); err != nil {
		log.Printf("⚠️ Demo customer seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedOfficer seeds the default back-office officer.
// Development/testing only; production officers are provisioned separately.
func (s *Seeder) seedOfficer() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleOfficer).Count(&count)
	if count > 0 {
		return nil // Officer already exists
	}

	hashedPassword, err := password.Hash("officer123456")
	if err != nil {
		return err
	}

	officer := &models.User{
		Email:       "officer@nexbank.dev",
		FullName:    "Back Office",
		Password:    hashedPassword,
		Role:        models.RoleOfficer,
		Status:      models.StatusActive,
		KycStatus:   models.KycVerified,
		CanTransact: false, // Officers do not move money
	}
	return s.db.Create(officer).Error
}

// seedDemoCustomer seeds a verified customer with two funded accounts so the
// mobile client has something to show in dev mode.
func (s *Seeder) seedDemoCustomer() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash("customer123456")
	if err != nil {
		return err
	}
	hashedPin, err := password.Hash("123456")
	if err != nil {
		return err
	}

	customer := &models.User{
		Email:       "demo@nexbank.dev",
		FullName:    "Demo Customer",
		Password:    hashedPassword,
		PinHash:     hashedPin,
		Role:        models.RoleCustomer,
		Status:      models.StatusActive,
		KycStatus:   models.KycVerified,
		CanTransact: true,
	}
	if err := s.db.Create(customer).Error; err != nil {
		return err
	}

	accounts := []*models.Account{
		{
			AccountNo: "100000001",
			UserID:    customer.ID,
			Kind:      models.AccountPayment,
			Balance:   50_000_000,
			Status:    models.StatusActive,
		},
		{
			AccountNo: "100000002",
			UserID:    customer.ID,
			Kind:      models.AccountSavings,
			Balance:   120_000_000,
			Status:    models.StatusActive,
		},
	}
	for _, account := range accounts {
		if err := s.db.Create(account).Error; err != nil {
			return err
		}
	}

	return nil
}

// SeedDemoData runs seeders in dev mode
func SeedDemoData(db *gorm.DB) error {
	return NewSeeder(db).Run()
}
