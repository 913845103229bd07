package services

import (
	"gorm.io/gorm"

	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
)

// DiscoverySection is one homepage row: a category and the public
// profiles shown under it.
type DiscoverySection struct {
	Category models.Category  `json:"category"`
	Profiles []models.Profile `json:"profiles"`
}

// DiscoveryService serves the public read side: featured and recent
// works, and the category-sectioned homepage with random backfill.
type DiscoveryService interface {
	FeaturedWorks(db *gorm.DB, limit int) ([]models.Work, error)
	RecentWorks(db *gorm.DB, limit int) ([]models.Work, error)
	HomeSections(db *gorm.DB, perSection int) ([]DiscoverySection, error)
}

type discoveryService struct {
	workRepo     repositories.WorkRepository
	profileRepo  repositories.ProfileRepository
	categoryRepo repositories.CategoryRepository
}

func NewDiscoveryService(
	workRepo repositories.WorkRepository,
	profileRepo repositories.ProfileRepository,
	categoryRepo repositories.CategoryRepository,
) DiscoveryService {
	return &discoveryService{
		workRepo:     workRepo,
		profileRepo:  profileRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *discoveryService) FeaturedWorks(db *gorm.DB, limit int) ([]models.Work, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.workRepo.FindFeatured(db, limit)
}

func (s *discoveryService) RecentWorks(db *gorm.DB, limit int) ([]models.Work, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.workRepo.FindRecent(db, limit)
}

// HomeSections builds one section per category. Sections with too few
// matching profiles are backfilled with random public profiles not
// already shown, so the homepage never renders half-empty rows.
func (s *discoveryService) HomeSections(db *gorm.DB, perSection int) ([]DiscoverySection, error) {
	if perSection <= 0 {
		perSection = 4
	}

	categories, err := s.categoryRepo.FindAll(db)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	sections := make([]DiscoverySection, 0, len(categories))

	for _, category := range categories {
		profiles, err := s.profileRepo.FindPublicByCategory(db, category.Slug, perSection)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			seen[p.ID] = true
		}

		if missing := perSection - len(profiles); missing > 0 {
			exclude := make([]string, 0, len(seen))
			for id := range seen {
				exclude = append(exclude, id)
			}
			fill, err := s.profileRepo.FindRandomPublic(db, missing, exclude)
			if err != nil {
				return nil, err
			}
			for _, p := range fill {
				seen[p.ID] = true
			}
			profiles = append(profiles, fill...)
		}

		if len(profiles) > 0 {
			sections = append(sections, DiscoverySection{Category: category, Profiles: profiles})
		}
	}

	return sections, nil
}
