package types

// TickerRecord is the cached summary of one synced ticker.
// Ticker is the unique key; a sync replaces the whole record.
type TickerRecord struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	Sector        string   `json:"sector"`
	DataPoints    int      `json:"data_points"`
	CurrentPrice  *float64 `json:"current_price"`
	MarketCap     float64  `json:"market_cap"`
	SyncedAt      string   `json:"synced_at"`
	FileSizeBytes int64    `json:"file_size"`
}

// SearchResult is a candidate symbol returned by the admin search endpoint.
type SearchResult struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Type          string `json:"type"`
	Sector        string `json:"sector"`
	AlreadySynced bool   `json:"already_synced"`
}

// Preset is a server-defined group of tickers for one-click bulk sync.
type Preset struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

// BulkResult reports the outcome of a bulk or preset sync. Partial success
// is normal and reported through the counts.
type BulkResult struct {
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Errors  int    `json:"errors"`
	Preset  string `json:"preset,omitempty"`
}

// Log levels emitted by the sync service.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEntry is a read-only activity record owned by the server.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Ticker    string `json:"ticker"`
}

// Overview is the aggregate snapshot served by the overview endpoint.
type Overview struct {
	TotalTickers     int            `json:"total_tickers"`
	TotalDataPoints  int            `json:"total_data_points"`
	TotalMarketCap   float64        `json:"total_market_cap"`
	TotalDBSizeBytes int64          `json:"total_db_size_bytes"`
	TotalDBSizeMB    float64        `json:"total_db_size_mb"`
	LastSync         string         `json:"last_sync"`
	Sectors          map[string]int `json:"sectors"`
	RecentLogs       []LogEntry     `json:"recent_logs"`
}

// Company holds the descriptive part of a detail record.
type Company struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Country     string `json:"country"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Employees   int    `json:"employees"`
	Exchange    string `json:"exchange"`
	Currency    string `json:"currency"`
}

// TickerDetail is the expanded per-ticker payload.
type TickerDetail struct {
	Ticker       string   `json:"ticker"`
	Company      Company  `json:"company"`
	Stats        Stats    `json:"stats"`
	CurrentPrice *float64 `json:"current_price"`
	DataPoints   int      `json:"data_points"`
	SyncedAt     string   `json:"synced_at"`
}

// Quote is a live quote used to annotate a cached record.
type Quote struct {
	Price  string
	ChgFmt string
	ChgRaw float64
	Name   string
}
