package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Routing  RoutingConfig
	OSRM     OSRMConfig
	Google   GoogleConfig
	Overpass OverpassConfig
	Cluster  ClusterConfig
	Parking  ParkingConfig
	Solver   SolverConfig
	Planner  PlannerConfig
	Import   ImportConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

// RoutingConfig выбирает провайдера дорожной сети: osrm или google
type RoutingConfig struct {
	Provider string
}

type OSRMConfig struct {
	BaseURL      string
	Profile      string
	ProbeTimeout time.Duration
	RouteTimeout time.Duration
	TableTimeout time.Duration
	ProbeTTL     time.Duration
}

type GoogleConfig struct {
	APIKey         string
	RequestTimeout time.Duration
}

type OverpassConfig struct {
	BaseURL       string
	NearbyTimeout time.Duration
	BulkTimeout   time.Duration
	RadiusM       int
	Limit         int
	CacheTTL      time.Duration
	WayTags       []string
}

type ClusterConfig struct {
	RadiusKm       float64
	MinClusterSize int
	MaxClusterSize int
}

type ParkingConfig struct {
	MaxStaticRadiusM     float64
	StaticSearchRadiusKm float64
	SyntheticRadiusKm    float64
	CirclePoints         int
}

type SolverConfig struct {
	Budget          time.Duration
	TwoOptMaxPasses int
	PenaltyFactor   float64
}

type PlannerConfig struct {
	PoolSize      int
	SpeedKmh      float64
	TrafficBuffer float64
}

type ImportConfig struct {
	SpacingM       float64
	DedupeDecimals int
	MinLat         float64
	MinLon         float64
	MaxLat         float64
	MaxLon         float64
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Routing: RoutingConfig{
			Provider: viper.GetString("ROUTING_PROVIDER"),
		},
		OSRM: OSRMConfig{
			BaseURL:      viper.GetString("OSRM_BASE_URL"),
			Profile:      viper.GetString("OSRM_PROFILE"),
			ProbeTimeout: time.Duration(viper.GetInt("OSRM_PROBE_TIMEOUT_MS")) * time.Millisecond,
			RouteTimeout: time.Duration(viper.GetInt("OSRM_ROUTE_TIMEOUT_MS")) * time.Millisecond,
			TableTimeout: time.Duration(viper.GetInt("OSRM_TABLE_TIMEOUT_MS")) * time.Millisecond,
			ProbeTTL:     time.Duration(viper.GetInt("OSRM_PROBE_TTL")) * time.Second,
		},
		Google: GoogleConfig{
			APIKey:         viper.GetString("GOOGLE_MAPS_API_KEY"),
			RequestTimeout: time.Duration(viper.GetInt("GOOGLE_REQUEST_TIMEOUT")) * time.Second,
		},
		Overpass: OverpassConfig{
			BaseURL:       viper.GetString("OVERPASS_BASE_URL"),
			NearbyTimeout: time.Duration(viper.GetInt("OVERPASS_NEARBY_TIMEOUT")) * time.Second,
			BulkTimeout:   time.Duration(viper.GetInt("OVERPASS_BULK_TIMEOUT")) * time.Second,
			RadiusM:       viper.GetInt("OVERPASS_PARKING_RADIUS_M"),
			Limit:         viper.GetInt("OVERPASS_PARKING_LIMIT"),
			CacheTTL:      time.Duration(viper.GetInt("OVERPASS_CACHE_TTL")) * time.Second,
			WayTags:       parseWayTags(viper.GetString("OVERPASS_WAY_TAGS")),
		},
		Cluster: ClusterConfig{
			RadiusKm:       viper.GetFloat64("CLUSTER_RADIUS_KM"),
			MinClusterSize: viper.GetInt("CLUSTER_MIN_SIZE"),
			MaxClusterSize: viper.GetInt("CLUSTER_MAX_SIZE"),
		},
		Parking: ParkingConfig{
			MaxStaticRadiusM:     viper.GetFloat64("PARKING_MAX_STATIC_RADIUS_M"),
			StaticSearchRadiusKm: viper.GetFloat64("PARKING_STATIC_SEARCH_RADIUS_KM"),
			SyntheticRadiusKm:    viper.GetFloat64("PARKING_SYNTHETIC_RADIUS_KM"),
			CirclePoints:         viper.GetInt("PARKING_CIRCLE_POINTS"),
		},
		Solver: SolverConfig{
			Budget:          time.Duration(viper.GetInt("SOLVER_BUDGET_MS")) * time.Millisecond,
			TwoOptMaxPasses: viper.GetInt("SOLVER_TWO_OPT_MAX_PASSES"),
			PenaltyFactor:   viper.GetFloat64("SOLVER_PENALTY_FACTOR"),
		},
		Planner: PlannerConfig{
			PoolSize:      viper.GetInt("PLANNER_POOL_SIZE"),
			SpeedKmh:      viper.GetFloat64("PLANNER_SPEED_KMH"),
			TrafficBuffer: viper.GetFloat64("PLANNER_TRAFFIC_BUFFER"),
		},
		Import: ImportConfig{
			SpacingM:       viper.GetFloat64("IMPORT_SPACING_M"),
			DedupeDecimals: viper.GetInt("IMPORT_DEDUPE_DECIMALS"),
			MinLat:         viper.GetFloat64("IMPORT_BBOX_MIN_LAT"),
			MinLon:         viper.GetFloat64("IMPORT_BBOX_MIN_LON"),
			MaxLat:         viper.GetFloat64("IMPORT_BBOX_MAX_LAT"),
			MaxLon:         viper.GetFloat64("IMPORT_BBOX_MAX_LON"),
		},
	}

	// Set default values if not provided
	if cfg.Routing.Provider == "" {
		cfg.Routing.Provider = "osrm"
	}
	if cfg.OSRM.BaseURL == "" {
		cfg.OSRM.BaseURL = "http://localhost:5000"
	}
	if cfg.OSRM.Profile == "" {
		cfg.OSRM.Profile = "driving"
	}
	if cfg.OSRM.ProbeTimeout == 0 {
		cfg.OSRM.ProbeTimeout = 2000 * time.Millisecond
	}
	if cfg.OSRM.RouteTimeout == 0 {
		cfg.OSRM.RouteTimeout = 5000 * time.Millisecond
	}
	if cfg.OSRM.TableTimeout == 0 {
		cfg.OSRM.TableTimeout = 10000 * time.Millisecond
	}
	if cfg.OSRM.ProbeTTL == 0 {
		cfg.OSRM.ProbeTTL = 30 * time.Second
	}
	if cfg.Google.RequestTimeout == 0 {
		cfg.Google.RequestTimeout = 10 * time.Second
	}
	if cfg.Overpass.BaseURL == "" {
		cfg.Overpass.BaseURL = "https://overpass-api.de/api/interpreter"
	}
	if cfg.Overpass.NearbyTimeout == 0 {
		cfg.Overpass.NearbyTimeout = 30 * time.Second
	}
	if cfg.Overpass.BulkTimeout == 0 {
		cfg.Overpass.BulkTimeout = 180 * time.Second
	}
	if cfg.Overpass.RadiusM == 0 {
		cfg.Overpass.RadiusM = 600
	}
	if cfg.Overpass.Limit == 0 {
		cfg.Overpass.Limit = 10
	}
	if cfg.Overpass.CacheTTL == 0 {
		cfg.Overpass.CacheTTL = 300 * time.Second
	}
	if len(cfg.Overpass.WayTags) == 0 {
		cfg.Overpass.WayTags = []string{
			"parking", "parking:lane", "parking:condition",
			"street_parking", "parking:left", "parking:right", "parking:both",
		}
	}
	if cfg.Cluster.RadiusKm == 0 {
		cfg.Cluster.RadiusKm = 10.0
	}
	if cfg.Cluster.MinClusterSize == 0 {
		cfg.Cluster.MinClusterSize = 3
	}
	if cfg.Cluster.MaxClusterSize == 0 {
		cfg.Cluster.MaxClusterSize = 40
	}
	if cfg.Parking.MaxStaticRadiusM == 0 {
		cfg.Parking.MaxStaticRadiusM = 2000
	}
	if cfg.Parking.StaticSearchRadiusKm == 0 {
		cfg.Parking.StaticSearchRadiusKm = 10.0
	}
	if cfg.Parking.SyntheticRadiusKm == 0 {
		cfg.Parking.SyntheticRadiusKm = 0.5
	}
	if cfg.Parking.CirclePoints == 0 {
		cfg.Parking.CirclePoints = 12
	}
	if cfg.Solver.Budget == 0 {
		cfg.Solver.Budget = 5000 * time.Millisecond
	}
	if cfg.Solver.TwoOptMaxPasses == 0 {
		cfg.Solver.TwoOptMaxPasses = 100
	}
	if cfg.Solver.PenaltyFactor == 0 {
		cfg.Solver.PenaltyFactor = 0.3
	}
	if cfg.Planner.PoolSize == 0 {
		cfg.Planner.PoolSize = 8
	}
	if cfg.Planner.SpeedKmh == 0 {
		cfg.Planner.SpeedKmh = 50.0
	}
	if cfg.Planner.TrafficBuffer == 0 {
		cfg.Planner.TrafficBuffer = 1.3
	}
	if cfg.Import.SpacingM == 0 {
		cfg.Import.SpacingM = 10.0
	}
	if cfg.Import.DedupeDecimals == 0 {
		cfg.Import.DedupeDecimals = 5
	}
	if cfg.Import.MinLat == 0 {
		cfg.Import.MinLat = 47.5
	}
	if cfg.Import.MinLon == 0 {
		cfg.Import.MinLon = 7.5
	}
	if cfg.Import.MaxLat == 0 {
		cfg.Import.MaxLat = 49.8
	}
	if cfg.Import.MaxLon == 0 {
		cfg.Import.MaxLon = 10.5
	}

	return cfg, nil
}

func parseWayTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
