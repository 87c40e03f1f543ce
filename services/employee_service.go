package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/utils"
)

// MinNIPLength is the shortest accepted employee number.
const MinNIPLength = 3

// EmployeeInput carries the writable employee fields. An empty Password on update keeps the old one.
type EmployeeInput struct {
	NIP      string
	Name     string
	Password string
}

// EmployeeService manages employee records for the admin API.
type EmployeeService struct {
	db     *gorm.DB
	hasher utils.PasswordHasher
}

func NewEmployeeService(db *gorm.DB, hasher utils.PasswordHasher) *EmployeeService {
	return &EmployeeService{db: db, hasher: hasher}
}

func normalizeEmployeeInput(in EmployeeInput) (EmployeeInput, error) {
	in.NIP = strings.TrimSpace(in.NIP)
	in.Name = utils.SanitizeText(in.Name)
	if utf8.RuneCountInString(in.NIP) < MinNIPLength {
		return in, fmt.Errorf("%w: nip must be at least %d characters", ErrValidation, MinNIPLength)
	}
	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrValidation)
	}
	return in, nil
}

// Create inserts a new employee. The NIP pre-check is a fast path; the unique index decides races.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	in, err := normalizeEmployeeInput(in)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Employee{}).Where("nip = ?", in.NIP).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateNIP
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	emp := models.Employee{NIP: in.NIP, Name: in.Name, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&emp).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateNIP
		}
		return nil, err
	}
	return &emp, nil
}

// List returns every employee ordered by id.
func (s *EmployeeService) List(ctx context.Context) ([]models.Employee, error) {
	employees := []models.Employee{}
	if err := s.db.WithContext(ctx).Order("id").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// Get returns the employee with the given id.
func (s *EmployeeService) Get(ctx context.Context, id uint) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.WithContext(ctx).First(&emp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// GetByNIP returns the employee with the given NIP.
func (s *EmployeeService) GetByNIP(ctx context.Context, nip string) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.WithContext(ctx).Where("nip = ?", nip).First(&emp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// Update overwrites NIP and name, and the password hash only when a new password is given.
func (s *EmployeeService) Update(ctx context.Context, id uint, in EmployeeInput) (*models.Employee, error) {
	emp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = normalizeEmployeeInput(in)
	if err != nil {
		return nil, err
	}

	if in.NIP != emp.NIP {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Employee{}).Where("nip = ? AND id <> ?", in.NIP, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateNIP
		}
	}

	emp.NIP = in.NIP
	emp.Name = in.Name
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		emp.PasswordHash = hash
	}
	if err := s.db.WithContext(ctx).Save(emp).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateNIP
		}
		return nil, err
	}
	return emp, nil
}

// Delete removes an employee that owns no attendance rows. The RESTRICT foreign key is the
// storage-side guard for a check-in racing the delete.
func (s *EmployeeService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Attendance{}).Where("employee_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmployeeHasAttendance
	}

	res := s.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return ErrEmployeeHasAttendance
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// ChangePassword re-hashes and stores a new password.
func (s *EmployeeService) ChangePassword(ctx context.Context, id uint, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
