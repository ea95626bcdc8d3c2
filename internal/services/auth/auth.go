// Package services содержит логику бизнес-уровня для работы с операторами
// и аутентификацией.
package services

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/parking-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/password"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// OperatorRepository описывает контракт для работы с операторами в базе данных.
type OperatorRepository interface {
	// RegisterOperator сохраняет нового оператора и возвращает его UID.
	RegisterOperator(ctx context.Context, username, email, passwordHash, role string) (string, error)

	// GetOperatorByUsername возвращает оператора по имени или ошибку, если не найден.
	GetOperatorByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	operators OperatorRepository
	jwtMaker  jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(operators OperatorRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		operators: operators,
		jwtMaker:  jwtMaker,
	}
}

// Register создает нового оператора с хэшированием пароля и дефолтной ролью "operator".
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", err
	}
	return s.operators.RegisterOperator(ctx, username, email, hashed, "operator")
}

// Login проверяет пароль оператора и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	operator, err := s.operators.GetOperatorByUsername(ctx, username)
	if err != nil {
		return "", "", err
	}
	if err := password.CompareHash(operator.PasswordHash, rawPassword); err != nil {
		return "", "", errors.New("invalid credentials")
	}
	token, err = s.jwtMaker.GenerateToken(operator.Username, operator.Role)
	if err != nil {
		return "", "", err
	}
	return token, operator.Role, nil
}

// ValidateToken проверяет JWT и возвращает оператора, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Operator, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	operator := &models.Operator{
		Username: claims.Username,
		Role:     claims.Role,
	}
	return operator, claims.Role, true, nil
}
