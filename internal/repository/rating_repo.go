package repository

import (
	"errors"

	"platefeed/internal/model"

	"gorm.io/gorm"
)

type RatingRepository interface {
	FindByID(id string) (*model.Rating, error)
	FindByType(ratingType string) (*model.Rating, error)
	FindAll() ([]model.Rating, error)
	Seed() error
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) FindByID(id string) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.Where("id = ?", id).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) FindByType(ratingType string) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.Where("type = ?", ratingType).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) FindAll() ([]model.Rating, error) {
	var ratings []model.Rating
	if err := r.db.Order("type ASC").Find(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// Seed inserts the reference rating rows if they are not present yet.
// Ratings are immutable, so existing rows are never touched.
func (r *ratingRepository) Seed() error {
	for _, rating := range model.DefaultRatings() {
		var count int64
		if err := r.db.Model(&model.Rating{}).Where("type = ?", rating.Type).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		rating := rating
		if err := r.db.Create(&rating).Error; err != nil {
			return err
		}
	}
	return nil
}
