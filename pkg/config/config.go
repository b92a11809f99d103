// Package config provides system configuration management with hot-reload capabilities
package config

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"encore.dev/storage/sqldb"

	"encore.app/pkg/logger"
)

// CapPolicy decides what happens to a bid once the auction price has hit the
// floor-price-derived ceiling.
type CapPolicy string

const (
	// CapPolicyReject refuses bids that can no longer move the price.
	CapPolicyReject CapPolicy = "reject"
	// CapPolicyClamp accepts them and leaves the price at the ceiling.
	CapPolicyClamp CapPolicy = "clamp"
)

// SystemSettings holds all system configuration
type SystemSettings struct {
	// Auction defaults
	DefaultBidIncrement      float64 `json:"auctions.default_bid_increment"`
	DefaultBidFee            float64 `json:"auctions.default_bid_fee"`
	DefaultTimeExtensionSecs int     `json:"auctions.default_time_extension_secs"`

	// Price ceiling: auction price may never exceed floor_price * MaxPriceRatio.
	MaxPriceRatio float64   `json:"auctions.max_price_ratio"`
	CapPolicy     CapPolicy `json:"auctions.cap_policy"`

	// Floor-price oracle
	OracleFallbackFloorPrice float64 `json:"oracle.fallback_floor_price"`

	// Rate limits
	BidsRateLimitPerMinute int `json:"bids.rate_limit_per_minute"`

	// WebSocket settings
	WSHeartbeatIntervalSecs int `json:"ws.heartbeat_interval_secs"`
	WSMaxConnections        int `json:"ws.max_connections"`

	// Metadata
	LastUpdated time.Time `json:"last_updated"`
}

// ChangeListener is called when settings change
type ChangeListener func(settings *SystemSettings)

// Manager manages system configuration with hot-reload
type Manager struct {
	db           *sqldb.Database
	settings     *SystemSettings
	mutex        sync.RWMutex
	listeners    []ChangeListener
	stopReload   chan struct{}
	reloadTicker *time.Ticker
}

// NewManager creates a new configuration manager
func NewManager(db *sqldb.Database, reloadInterval time.Duration) *Manager {
	m := &Manager{
		db:         db,
		settings:   defaultSettings(),
		stopReload: make(chan struct{}),
	}

	if err := m.LoadSettings(); err != nil {
		logger.LogError(context.Background(), err, "failed to load initial settings, using defaults")
	}

	if reloadInterval > 0 {
		m.startHotReload(reloadInterval)
	}

	return m
}

func defaultSettings() *SystemSettings {
	return &SystemSettings{
		DefaultBidIncrement:      0.03,
		DefaultBidFee:            0.24,
		DefaultTimeExtensionSecs: 60,
		MaxPriceRatio:            0.3,
		CapPolicy:                CapPolicyReject,
		OracleFallbackFloorPrice: 100.0,
		BidsRateLimitPerMinute:   30,
		WSHeartbeatIntervalSecs:  30,
		WSMaxConnections:         10000,
	}
}

// LoadSettings loads settings from database
func (m *Manager) LoadSettings() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := m.db.Query(ctx, `
		SELECT key, value
		FROM system_settings
		WHERE value IS NOT NULL
		ORDER BY key
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		if value.Valid {
			raw[key] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	settings := defaultSettings()
	applyRaw(settings, raw)
	settings.LastUpdated = time.Now().UTC()

	m.mutex.Lock()
	m.settings = settings
	listeners := make([]ChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mutex.Unlock()

	for _, l := range listeners {
		l(settings)
	}
	return nil
}

func applyRaw(s *SystemSettings, raw map[string]string) {
	if v, ok := parseFloat(raw, "auctions.default_bid_increment"); ok {
		s.DefaultBidIncrement = v
	}
	if v, ok := parseFloat(raw, "auctions.default_bid_fee"); ok {
		s.DefaultBidFee = v
	}
	if v, ok := parseInt(raw, "auctions.default_time_extension_secs"); ok {
		s.DefaultTimeExtensionSecs = v
	}
	if v, ok := parseFloat(raw, "auctions.max_price_ratio"); ok && v > 0 {
		s.MaxPriceRatio = v
	}
	if v, ok := raw["auctions.cap_policy"]; ok {
		switch CapPolicy(v) {
		case CapPolicyReject, CapPolicyClamp:
			s.CapPolicy = CapPolicy(v)
		}
	}
	if v, ok := parseFloat(raw, "oracle.fallback_floor_price"); ok && v > 0 {
		s.OracleFallbackFloorPrice = v
	}
	if v, ok := parseInt(raw, "bids.rate_limit_per_minute"); ok && v > 0 {
		s.BidsRateLimitPerMinute = v
	}
	if v, ok := parseInt(raw, "ws.heartbeat_interval_secs"); ok && v > 0 {
		s.WSHeartbeatIntervalSecs = v
	}
	if v, ok := parseInt(raw, "ws.max_connections"); ok && v > 0 {
		s.WSMaxConnections = v
	}
}

func parseFloat(raw map[string]string, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseInt(raw map[string]string, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetSettings returns the current settings snapshot.
func (m *Manager) GetSettings() *SystemSettings {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.settings
}

// OnChange registers a listener invoked after every reload.
func (m *Manager) OnChange(l ChangeListener) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) startHotReload(interval time.Duration) {
	m.reloadTicker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-m.reloadTicker.C:
				if err := m.LoadSettings(); err != nil {
					logger.LogError(context.Background(), err, "settings hot-reload failed")
				}
			case <-m.stopReload:
				m.reloadTicker.Stop()
				return
			}
		}
	}()
}

// Stop stops the hot-reload loop.
func (m *Manager) Stop() {
	close(m.stopReload)
}

// Global manager, set once during service initialization.
var (
	globalManager *Manager
	globalMu      sync.RWMutex
)

// InitGlobalManager initializes the process-wide configuration manager.
func InitGlobalManager(db *sqldb.Database, reloadInterval time.Duration) *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		globalManager = NewManager(db, reloadInterval)
	}
	return globalManager
}

// GetGlobalManager returns the process-wide configuration manager, or nil
// before initialization.
func GetGlobalManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// Current returns the current settings, falling back to defaults when the
// global manager has not been initialized (tests, tooling).
func Current() *SystemSettings {
	if m := GetGlobalManager(); m != nil {
		return m.GetSettings()
	}
	return defaultSettings()
}
