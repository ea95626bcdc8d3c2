package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/parking-aggregator/internal/models"
)

// RegisterOperator сохраняет нового оператора и возвращает его UID.
func (s *Storage) RegisterOperator(ctx context.Context, username, email, passwordHash, role string) (string, error) {
	const op = "storage.RegisterOperator"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO operators (username, email, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid`
	var uid string
	if err := s.DB.QueryRowContext(ctx, query, username, email, passwordHash, role).Scan(&uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetOperatorByUsername возвращает оператора по имени пользователя.
func (s *Storage) GetOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	const op = "storage.GetOperatorByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role
			  FROM operators
			  WHERE username = $1`
	var operator models.Operator
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&operator.UID, &operator.Email, &operator.Username,
		&operator.PasswordHash, &operator.Role); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &operator, nil
}
