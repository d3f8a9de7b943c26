package services

import (
	"time"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskify/backend/internal/models"
)

type RegistrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type RegisterService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
}

type RegisterServiceImpl struct{}

func NewRegisterService() *RegisterServiceImpl {
	return &RegisterServiceImpl{}
}

func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrDuplicateEmail
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	now := time.Now()
	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func validateRegistration(req RegistrationRequest) error {
	verr := &ValidationError{}

	if req.Name == "" {
		verr.Add("Please provide a name")
	}
	if req.Email == "" {
		verr.Add("Please provide an email")
	}
	if req.Password == "" {
		verr.Add("Please provide a password")
	} else if len(req.Password) < 6 {
		verr.Add("Password must be at least 6 characters")
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		verr.Add("Role must be either user or admin")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
