package repositories

import (
	"context"
	"time"

	"nexbank/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("id").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ExistsByEmail checks if a user exists by email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// SetPin stores a new transaction PIN hash
func (r *userRepository) SetPin(ctx context.Context, userID uint, pinHash string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("pin_hash", pinHash).Error
}

// SetKycStatus updates the eKYC status and transact permission
func (r *userRepository) SetKycStatus(ctx context.Context, userID uint, status string, canTransact bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"kyc_status":   status,
			"can_transact": canTransact,
		}).Error
}

// IncrementPinFailures atomically increments the PIN failure counter and
// returns the resulting count. The increment is a single conditional update
// so concurrent failed attempts never lose an increment.
func (r *userRepository) IncrementPinFailures(ctx context.Context, userID uint) (int, error) {
	return r.incrementCounter(ctx, userID, "pin_fail_count")
}

// ResetPinFailures resets the PIN failure counter to zero
func (r *userRepository) ResetPinFailures(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("pin_fail_count", 0).Error
}

// IncrementBioFailures atomically increments the biometric failure counter
func (r *userRepository) IncrementBioFailures(ctx context.Context, userID uint) (int, error) {
	return r.incrementCounter(ctx, userID, "bio_fail_count")
}

// ResetBioFailures resets the biometric failure counter to zero
func (r *userRepository) ResetBioFailures(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("bio_fail_count", 0).Error
}

func (r *userRepository) incrementCounter(ctx context.Context, userID uint, column string) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var count int
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Select(column).
		Scan(&count).Error
	return count, err
}

// Lock transitions the user to LOCKED. Locking is one-directional from the
// customer's perspective; repeating the call on an already locked user is a
// no-op.
func (r *userRepository) Lock(ctx context.Context, userID uint, reason string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ?", userID, models.StatusActive).
		Updates(map[string]interface{}{
			"status":      models.StatusLocked,
			"lock_reason": reason,
			"locked_at":   at,
		}).Error
}

// Unlock reactivates a locked user and clears lock state and counters.
// Officer back-office only.
func (r *userRepository) Unlock(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"status":         models.StatusActive,
			"lock_reason":    "",
			"locked_at":      nil,
			"pin_fail_count": 0,
			"bio_fail_count": 0,
		}).Error
}
