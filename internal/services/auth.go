package services

import (
	"os"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskify/backend/internal/models"
)

const TokenIssuer = "taskify-backend"

type AuthService interface {
	LoginUser(db *gorm.DB, email, password string) (*models.User, error)
	GenerateToken(user *models.User) (string, error)
	GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	UpdateDetails(db *gorm.DB, userID uuid.UUID, name, email string) (*models.User, error)
	UpdatePassword(db *gorm.DB, userID uuid.UUID, currentPassword, newPassword string) (*models.User, error)
}

type AuthServiceImpl struct{}

func NewAuthService() *AuthServiceImpl {
	return &AuthServiceImpl{}
}

func JWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret_change_in_production"
	}
	return secret
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthServiceImpl) GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iss":     TokenIssuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecret()))
}

func (s *AuthServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthServiceImpl) UpdateDetails(db *gorm.DB, userID uuid.UUID, name, email string) (*models.User, error) {
	user, err := s.GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if name == "" {
		verr.Add("Please provide a name")
	}
	if email == "" {
		verr.Add("Please provide an email")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if email != user.Email {
		var existing models.User
		err := db.Where("email = ? AND id <> ?", email, userID).First(&existing).Error
		if err == nil {
			return nil, ErrDuplicateEmail
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now()

	if err := db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdatePassword(db *gorm.DB, userID uuid.UUID, currentPassword, newPassword string) (*models.User, error) {
	user, err := s.GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.Password, currentPassword) {
		return nil, ErrInvalidCredentials
	}

	if len(newPassword) < 6 {
		return nil, &ValidationError{Messages: []string{"Password must be at least 6 characters"}}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user.Password = string(hashed)
	user.UpdatedAt = time.Now()

	if err := db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
