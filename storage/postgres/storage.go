package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tournament-hosting-system/models"
	"tournament-hosting-system/storage"
)

// Storage is the GORM/Postgres implementation of storage.Store.
type Storage struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

var _ storage.Store = (*Storage)(nil)

// Tournament operations

func (s *Storage) FetchTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := s.db.WithContext(ctx).
		Preload("Registrations", func(db *gorm.DB) *gorm.DB {
			return db.Order("registered_at ASC")
		}).
		First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Storage) ListTournaments(ctx context.Context, filter storage.TournamentFilter) ([]models.Tournament, error) {
	q := s.db.WithContext(ctx).Model(&models.Tournament{})

	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Game != "" {
		q = q.Where("LOWER(game) LIKE ?", "%"+strings.ToLower(filter.Game)+"%")
	}
	if filter.Platform != "" {
		q = q.Where("LOWER(platform) LIKE ?", "%"+strings.ToLower(filter.Platform)+"%")
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.HostEmail != "" {
		q = q.Where("host_email = ?", filter.HostEmail)
	}
	if filter.FeaturedOnly {
		q = q.Where("featured = ?", true)
	}

	if filter.SortByPlayers {
		q = q.Order("players DESC")
	} else {
		q = q.Order("created_at DESC")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var tournaments []models.Tournament
	if err := q.Find(&tournaments).Error; err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (s *Storage) CreateTournament(ctx context.Context, t *models.Tournament) error {
	return s.db.WithContext(ctx).Omit("Registrations").Create(t).Error
}

func (s *Storage) UpdateTournament(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrTournamentNotFound
	}
	return nil
}

func (s *Storage) UpdateTournamentStatus(ctx context.Context, id string, status, feedback string) error {
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if feedback != "" {
		fields["admin_feedback"] = feedback
	}
	return s.UpdateTournament(ctx, id, fields)
}

// DeleteTournament removes the tournament and its roster. Deletion is
// terminal; no orphaned registrations are retained.
func (s *Storage) DeleteTournament(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tournament_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Tournament{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrTournamentNotFound
		}
		return nil
	})
}

// CommitRegistration performs the conditional append-and-increment. The filter
// restates both preconditions at write time: an open slot AND absence of the
// contact email. Losing either race leaves the row count untouched and reports
// committed=false. The unique (tournament_id, email) index backstops the email
// clause, so re-sending the same registration after a timeout can never admit
// the same team twice.
func (s *Storage) CommitRegistration(ctx context.Context, tournamentID string, reg *models.Registration) (bool, error) {
	committed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Tournament{}).
			Where("id = ? AND players < max_players", tournamentID).
			Where("NOT EXISTS (SELECT 1 FROM registrations WHERE registrations.tournament_id = ? AND registrations.email = ?)",
				tournamentID, reg.Email).
			Updates(map[string]interface{}{
				"players":    gorm.Expr("players + 1"),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return committed, nil
}

func (s *Storage) CountRegistrations(ctx context.Context, tournamentID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("tournament_id = ?", tournamentID).
		Count(&count).Error
	return count, err
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	var existing models.User
	err := s.db.WithContext(ctx).First(&existing, "email = ?", u.Email).Error
	if err == nil {
		return models.ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Storage) UpsertUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "photo", "updated_at",
		}),
	}).Create(u).Error
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, email, role string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
