package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/magabrotheeeer/parking-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-aggregator/internal/lib/password"
	"github.com/magabrotheeeer/parking-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type OperatorsMock struct{ mock.Mock }

func (m *OperatorsMock) RegisterOperator(ctx context.Context, username, email, passwordHash, role string) (string, error) {
	args := m.Called(ctx, username, email, passwordHash, role)
	return args.String(0), args.Error(1)
}
func (m *OperatorsMock) GetOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	operators := new(OperatorsMock)
	operators.On("RegisterOperator", mock.Anything, "cashier", "cashier@example.com",
		mock.MatchedBy(func(hash string) bool {
			return password.CompareHash(hash, "secretpass") == nil
		}), "operator").
		Return("some-uid", nil).Once()

	svc := NewAuthService(operators, jwt.NewJWTMaker("test-secret", time.Hour))
	uid, err := svc.Register(context.Background(), "cashier@example.com", "cashier", "secretpass")

	require.NoError(t, err)
	assert.Equal(t, "some-uid", uid)
	operators.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secretpass")
	require.NoError(t, err)
	operator := &models.Operator{
		UID:          "some-uid",
		Username:     "cashier",
		Email:        "cashier@example.com",
		PasswordHash: hash,
		Role:         "operator",
	}
	maker := jwt.NewJWTMaker("test-secret", time.Hour)

	t.Run("success login returns valid token", func(t *testing.T) {
		operators := new(OperatorsMock)
		operators.On("GetOperatorByUsername", mock.Anything, "cashier").Return(operator, nil).Once()

		svc := NewAuthService(operators, maker)
		token, role, err := svc.Login(context.Background(), "cashier", "secretpass")

		require.NoError(t, err)
		assert.Equal(t, "operator", role)

		claims, err := maker.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "cashier", claims.Username)
		assert.Equal(t, "operator", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		operators := new(OperatorsMock)
		operators.On("GetOperatorByUsername", mock.Anything, "cashier").Return(operator, nil).Once()

		svc := NewAuthService(operators, maker)
		_, _, err := svc.Login(context.Background(), "cashier", "wrongpass")
		require.Error(t, err)
	})

	t.Run("unknown operator", func(t *testing.T) {
		operators := new(OperatorsMock)
		operators.On("GetOperatorByUsername", mock.Anything, "ghost").
			Return(nil, errors.New("not found")).Once()

		svc := NewAuthService(operators, maker)
		_, _, err := svc.Login(context.Background(), "ghost", "secretpass")
		require.Error(t, err)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken("cashier", "admin")
	require.NoError(t, err)

	svc := NewAuthService(new(OperatorsMock), maker)

	operator, role, valid, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "cashier", operator.Username)

	_, _, valid, err = svc.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.False(t, valid)
}
