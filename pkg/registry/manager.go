package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hamedafzali/bot-manager/pkg/connections"
	"github.com/hamedafzali/bot-manager/pkg/db"
	"github.com/hamedafzali/bot-manager/pkg/log"
	"github.com/hamedafzali/bot-manager/pkg/models"
	"github.com/hamedafzali/bot-manager/pkg/utils"
)

// credentialsCipherField marks an encrypted credentials column
const credentialsCipherField = "__ciphertext"

// Manager owns the bot lifecycle: creation, retrieval, update, deletion,
// status transitions, run accounting, and the service directory. It is a
// state store, not a scheduler: every transition is caller-initiated and
// every operation is synchronous.
//
// Writes to a single bot row are serialized with an in-process mutex keyed
// by bot id, so concurrent run recordings never lose an increment.
type Manager struct {
	repo    *db.Repository
	factory *connections.Factory
	logger  *log.Logger
	enc     *utils.Encryption

	mu       sync.Mutex
	botLocks map[string]*botLock
}

// botLock is a per-bot write lock with a reference count so entries can
// be removed once the last holder releases them. Without the count the
// map would grow one entry per bot id ever written, including ids that
// never existed.
type botLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a registry manager with explicit dependencies.
// enc may be nil, in which case credentials are stored in the clear.
func NewManager(repo *db.Repository, factory *connections.Factory, logger *log.Logger, enc *utils.Encryption) *Manager {
	return &Manager{
		repo:     repo,
		factory:  factory,
		logger:   logger,
		enc:      enc,
		botLocks: make(map[string]*botLock),
	}
}

// lockBot acquires the write lock for one bot id. The caller must pair
// it with unlockBot.
func (m *Manager) lockBot(id string) *botLock {
	m.mu.Lock()
	lock, ok := m.botLocks[id]
	if !ok {
		lock = &botLock{}
		m.botLocks[id] = lock
	}
	lock.refs++
	m.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// unlockBot releases a lock taken with lockBot and drops the map entry
// once no goroutine holds or awaits it
func (m *Manager) unlockBot(id string, lock *botLock) {
	lock.mu.Unlock()

	m.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.botLocks, id)
	}
	m.mu.Unlock()
}

// CreateBot validates the configuration, assigns a fresh id, and persists
// the bot with status idle and zeroed statistics.
func (m *Manager) CreateBot(cfg models.BotConfig) (*models.Bot, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bot := &models.Bot{
		ID:     uuid.New().String(),
		Status: models.StatusIdle,
	}
	bot.ApplyConfig(cfg)

	stored, err := m.encryptCredentials(bot.Credentials)
	if err != nil {
		return nil, &models.PersistenceError{Op: "create bot", Err: err}
	}
	plain := bot.Credentials
	bot.Credentials = stored

	if err := m.repo.CreateBot(bot); err != nil {
		return nil, &models.PersistenceError{Op: "create bot", Err: err}
	}
	bot.Credentials = plain

	m.logger.LogBot(bot.ID, "create", true, bot.Name)
	return bot, nil
}

// GetBot retrieves a bot by id
func (m *Manager) GetBot(id string) (*models.Bot, error) {
	bot, err := m.repo.GetBotByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, &models.PersistenceError{Op: "get bot", Err: err}
	}

	if err := m.decryptCredentials(bot); err != nil {
		return nil, &models.PersistenceError{Op: "get bot", Err: err}
	}
	return bot, nil
}

// ListBots returns all bots, newest-created first
func (m *Manager) ListBots(activeOnly bool) ([]models.Bot, error) {
	bots, err := m.repo.ListBots(activeOnly)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list bots", Err: err}
	}

	for i := range bots {
		if err := m.decryptCredentials(&bots[i]); err != nil {
			return nil, &models.PersistenceError{Op: "list bots", Err: err}
		}
	}
	return bots, nil
}

// UpdateBot replaces a bot's configuration wholesale. Validation failures
// surface before any storage call; a miss is ErrNotFound.
func (m *Manager) UpdateBot(id string, cfg models.BotConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	var bot models.Bot
	bot.ApplyConfig(cfg)

	stored, err := m.encryptCredentials(bot.Credentials)
	if err != nil {
		return &models.PersistenceError{Op: "update bot", Err: err}
	}
	bot.Credentials = stored

	lock := m.lockBot(id)
	defer m.unlockBot(id, lock)

	rows, err := m.repo.ReplaceBotConfig(id, &bot)
	if err != nil {
		return &models.PersistenceError{Op: "update bot", Err: err}
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	m.logger.LogBot(id, "update", true, cfg.Name)
	return nil
}

// DeleteBot removes a bot and all of its runs as one atomic unit
func (m *Manager) DeleteBot(id string) error {
	lock := m.lockBot(id)
	defer m.unlockBot(id, lock)

	rows, err := m.repo.DeleteBotCascade(id)
	if err != nil {
		return &models.PersistenceError{Op: "delete bot", Err: err}
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	m.logger.LogBot(id, "delete", true, "")
	return nil
}

// UpdateBotStatus sets status and error detail without touching config.
// An empty message clears error_message, so any transition away from the
// error state resets it.
func (m *Manager) UpdateBotStatus(id string, status models.BotStatus, errorMessage string) error {
	if !status.Valid() {
		return models.NewValidationError("status", "unknown status: "+string(status))
	}

	lock := m.lockBot(id)
	defer m.unlockBot(id, lock)

	rows, err := m.repo.UpdateBotStatus(id, status, errorMessage)
	if err != nil {
		return &models.PersistenceError{Op: "update bot status", Err: err}
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	m.logger.LogBot(id, "status:"+string(status), true, errorMessage)
	return nil
}

// RecordRun inserts an immutable run record. Successful runs fold their
// posted count into the parent bot's total_posts and refresh last_run; the
// insert and the aggregate update are one atomic unit, keeping the
// invariant total_posts == sum of posted over successful runs.
func (m *Manager) RecordRun(run *models.BotRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.RunTime.IsZero() {
		run.RunTime = time.Now().UTC()
	}
	if err := run.Validate(); err != nil {
		return err
	}

	if run.Posted > run.Processed {
		m.logger.WithFields(log.Fields{
			"run_id":    run.ID,
			"bot_id":    run.BotID,
			"processed": run.Processed,
			"posted":    run.Posted,
		}).Warn("Run posted more than it processed")
	}

	lock := m.lockBot(run.BotID)
	defer m.unlockBot(run.BotID, lock)

	if _, err := m.repo.GetBotByID(run.BotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		return &models.PersistenceError{Op: "record run", Err: err}
	}

	if err := m.repo.InsertRunWithStats(run); err != nil {
		return &models.PersistenceError{Op: "record run", Err: err}
	}

	m.logger.LogRun(run.ID, run.BotID, string(run.Status), run.Processed, run.Posted, run.Duration)
	return nil
}

// GetRuns returns the most recent runs for a bot, newest first
func (m *Manager) GetRuns(botID string, limit int) ([]models.BotRun, error) {
	if limit <= 0 {
		limit = 10
	}

	runs, err := m.repo.GetRunsByBotID(botID, limit)
	if err != nil {
		return nil, &models.PersistenceError{Op: "get runs", Err: err}
	}
	return runs, nil
}

// BotStats aggregates run history for one bot
type BotStats struct {
	BotID          string          `json:"bot_id"`
	TotalRuns      int             `json:"total_runs"`
	SuccessfulRuns int             `json:"successful_runs"`
	SuccessRate    float64         `json:"success_rate"`
	AvgDuration    float64         `json:"avg_duration"`
	TotalPosts     int             `json:"total_posts"`
	RecentRuns     []models.BotRun `json:"recent_runs"`
}

// GetBotStats computes run statistics over the bot's recent history
func (m *Manager) GetBotStats(botID string) (*BotStats, error) {
	bot, err := m.GetBot(botID)
	if err != nil {
		return nil, err
	}

	runs, err := m.GetRuns(botID, 50)
	if err != nil {
		return nil, err
	}

	stats := &BotStats{
		BotID:      botID,
		TotalRuns:  len(runs),
		TotalPosts: bot.TotalPosts,
	}

	var totalDuration float64
	for _, run := range runs {
		totalDuration += run.Duration
		if run.Status == models.RunSuccess {
			stats.SuccessfulRuns++
		}
	}
	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.SuccessfulRuns) / float64(stats.TotalRuns)
		stats.AvgDuration = totalDuration / float64(stats.TotalRuns)
	}

	recent := runs
	if len(recent) > 10 {
		recent = recent[:10]
	}
	stats.RecentRuns = recent

	return stats, nil
}

// TestConnection probes a bot's channel and records the outcome: a
// successful handshake marks the bot connected, a failure marks it errored
// with the detail. Channel failures never propagate as errors.
func (m *Manager) TestConnection(ctx context.Context, bot *models.Bot) bool {
	conn, err := m.factory.Create(bot.Config().Connection)
	if err != nil {
		m.logger.LogConnection(string(bot.ConnectionType), "test", false, err.Error())
		_ = m.UpdateBotStatus(bot.ID, models.StatusError, err.Error())
		return false
	}

	if !conn.Connect(ctx) {
		_ = m.UpdateBotStatus(bot.ID, models.StatusError, "connection test failed")
		return false
	}

	_ = m.UpdateBotStatus(bot.ID, models.StatusConnected, "")
	return true
}

// SendMessage delivers one message through the bot's channel. This is the
// manual path: it is exempt from the is_active gate, creates no run record,
// and leaves the bot's persisted state untouched whatever the outcome.
func (m *Manager) SendMessage(ctx context.Context, bot *models.Bot, text string, opts *connections.SendOptions) bool {
	conn, err := m.factory.Create(bot.Config().Connection)
	if err != nil {
		m.logger.LogConnection(string(bot.ConnectionType), "send", false, err.Error())
		return false
	}
	return conn.SendMessage(ctx, text, opts)
}

// ReceiveMessages pulls pending inbound messages from the bot's channel.
// Channels that cannot be polled return an empty slice.
func (m *Manager) ReceiveMessages(ctx context.Context, bot *models.Bot, opts *connections.ReceiveOptions) []connections.Message {
	conn, err := m.factory.Create(bot.Config().Connection)
	if err != nil {
		m.logger.LogConnection(string(bot.ConnectionType), "receive", false, err.Error())
		return nil
	}
	return conn.ReceiveMessages(ctx, opts)
}

// DescribeConnection reports diagnostic info for a bot's channel
func (m *Manager) DescribeConnection(ctx context.Context, bot *models.Bot) (connections.Info, error) {
	conn, err := m.factory.Create(bot.Config().Connection)
	if err != nil {
		return connections.Info{}, err
	}
	return conn.Describe(ctx), nil
}

// AvailableConnectionTypes returns factory metadata for configuration
// tooling
func (m *Manager) AvailableConnectionTypes() []connections.TypeInfo {
	return m.factory.AvailableTypes()
}

// encryptCredentials seals a credentials map when an encryption key is
// configured. The stored map carries a single ciphertext field.
func (m *Manager) encryptCredentials(creds models.StringMap) (models.StringMap, error) {
	if m.enc == nil || len(creds) == 0 {
		return creds, nil
	}

	blob, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	ciphertext, err := m.enc.Encrypt(string(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	return models.StringMap{credentialsCipherField: ciphertext}, nil
}

// decryptCredentials restores a sealed credentials map in place
func (m *Manager) decryptCredentials(bot *models.Bot) error {
	if m.enc == nil {
		return nil
	}

	ciphertext, ok := bot.Credentials[credentialsCipherField]
	if !ok || len(bot.Credentials) != 1 {
		return nil
	}

	blob, err := m.enc.Decrypt(ciphertext)
	if err != nil {
		return fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds models.StringMap
	if err := json.Unmarshal([]byte(blob), &creds); err != nil {
		return fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	bot.Credentials = creds
	return nil
}
