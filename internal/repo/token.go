package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/tokenauth/internal/models"
)

func (r *GormRepo) FindTokenByValue(ctx context.Context, value string) (*models.Token, error) {
	var token models.Token
	if err := r.DB.WithContext(ctx).Where("token = ?", value).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *GormRepo) FindTokensByUserID(ctx context.Context, userID uint) ([]models.Token, error) {
	var tokens []models.Token
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("find tokens: %w", err)
	}
	return tokens, nil
}

func (r *GormRepo) CreateToken(ctx context.Context, value string, userID uint) (*models.Token, error) {
	token := models.Token{
		Token:  value,
		UserID: userID,
	}
	if err := r.DB.WithContext(ctx).Create(&token).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create token: %w", err)
	}
	return &token, nil
}

// DeleteToken is a no-op when the row is already gone.
func (r *GormRepo) DeleteToken(ctx context.Context, token *models.Token) error {
	if token == nil {
		return nil
	}
	if err := r.DB.WithContext(ctx).Where("id = ?", token.ID).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
