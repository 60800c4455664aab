package db

import (
	"time"

	"github.com/hamedafzali/bot-manager/pkg/models"
	"gorm.io/gorm"
)

// Repository provides database operations for specific models
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *DB {
	return r.db
}

// Bot repository methods

func (r *Repository) CreateBot(bot *models.Bot) error {
	return r.db.Create(bot).Error
}

func (r *Repository) GetBotByID(id string) (*models.Bot, error) {
	var bot models.Bot
	err := r.db.First(&bot, "id = ?", id).Error
	return &bot, err
}

func (r *Repository) ListBots(activeOnly bool) ([]models.Bot, error) {
	var bots []models.Bot
	query := r.db.Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&bots).Error
	return bots, err
}

// ReplaceBotConfig overwrites all config columns for a bot. A map update is
// used so zero values (empty description, is_active false) are written too.
// Returns the number of rows matched.
func (r *Repository) ReplaceBotConfig(id string, bot *models.Bot) (int64, error) {
	updates := map[string]interface{}{
		"name":                  bot.Name,
		"description":           bot.Description,
		"city_name":             bot.CityName,
		"language":              bot.Language,
		"post_interval_minutes": bot.PostIntervalMinutes,
		"max_posts_per_run":     bot.MaxPostsPerRun,
		"connection_type":       bot.ConnectionType,
		"endpoint":              bot.Endpoint,
		"credentials":           bot.Credentials,
		"settings":              bot.Settings,
		"openai_api_key":        bot.OpenAIAPIKey,
		"newsapi_key":           bot.NewsAPIKey,
		"is_active":             bot.IsActive,
	}

	result := r.db.Model(&models.Bot{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

// UpdateBotStatus writes status and error_message only. An empty message
// clears the column. Returns the number of rows matched.
func (r *Repository) UpdateBotStatus(id string, status models.BotStatus, errorMessage string) (int64, error) {
	result := r.db.Model(&models.Bot{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	})
	return result.RowsAffected, result.Error
}

// DeleteBotCascade removes a bot and all of its runs in one transaction,
// so a partial delete can never leave orphaned rows behind. Returns the
// number of bot rows removed.
func (r *Repository) DeleteBotCascade(id string) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_id = ?", id).Delete(&models.BotRun{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Bot{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}

// Run repository methods

// InsertRunWithStats inserts the run row and, for successful runs, folds the
// posted count and run time into the parent bot's aggregate statistics.
// Both writes happen in one transaction.
func (r *Repository) InsertRunWithStats(run *models.BotRun) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}

		if run.Status != models.RunSuccess {
			return nil
		}

		return tx.Model(&models.Bot{}).Where("id = ?", run.BotID).Updates(map[string]interface{}{
			"total_posts": gorm.Expr("total_posts + ?", run.Posted),
			"last_run":    run.RunTime,
		}).Error
	})
}

func (r *Repository) GetRunsByBotID(botID string, limit int) ([]models.BotRun, error) {
	var runs []models.BotRun
	err := r.db.Where("bot_id = ?", botID).
		Order("run_time DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// Service repository methods

// UpsertService registers a service, replacing any existing row with the
// same id.
func (r *Repository) UpsertService(service *models.Service) error {
	var existing models.Service
	result := r.db.Where("id = ?", service.ID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return r.db.Create(service).Error
	}
	if result.Error != nil {
		return result.Error
	}

	service.CreatedAt = existing.CreatedAt
	service.LastPing = existing.LastPing
	return r.db.Save(service).Error
}

func (r *Repository) ListServices(serviceType string) ([]models.Service, error) {
	var services []models.Service
	query := r.db.Order("created_at DESC")
	if serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	}
	err := query.Find(&services).Error
	return services, err
}

// TouchServicePing refreshes last_ping. Returns the number of rows matched;
// a miss never creates a row.
func (r *Repository) TouchServicePing(id string) (int64, error) {
	now := time.Now().UTC()
	result := r.db.Model(&models.Service{}).Where("id = ?", id).Update("last_ping", &now)
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteService(id string) (int64, error) {
	result := r.db.Delete(&models.Service{}, "id = ?", id)
	return result.RowsAffected, result.Error
}
