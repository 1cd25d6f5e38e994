package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type SimulationConfig struct {
	Date                      time.Time     `mapstructure:"date"`
	QueueCapacity             int           `mapstructure:"queue_capacity"`
	AlertThreshold            time.Duration `mapstructure:"alert_threshold"`
	MaxCandidateOrders        int           `mapstructure:"max_candidate_orders"`
	TwoOptIterations          int           `mapstructure:"two_opt_iterations"`
	MaxReallocationIterations int           `mapstructure:"max_reallocation_iterations"`
	DistanceAllowance         float64       `mapstructure:"distance_allowance"` // road vs straight-line factor
	TaxiEnabled               bool          `mapstructure:"taxi_enabled"`
	GeoWorkers                int           `mapstructure:"geo_workers"`
}

type GeneratorConfig struct {
	Seed            int64         `mapstructure:"seed"`
	Shops           int           `mapstructure:"shops"`
	CouriersPerShop int           `mapstructure:"couriers_per_shop"`
	OrdersPerShop   int           `mapstructure:"orders_per_shop"`
	CityLat         float64       `mapstructure:"city_latitude"`
	CityLon         float64       `mapstructure:"city_longitude"`
	UrbanRadius     float64       `mapstructure:"urban_radius"`    // km
	DeliveryRadius  float64       `mapstructure:"delivery_radius"` // km around a shop
	OpenHour        int           `mapstructure:"open_hour"`
	CloseHour       int           `mapstructure:"close_hour"`
	MinPrepTime     time.Duration `mapstructure:"min_prep_time"`
	MaxPrepTime     time.Duration `mapstructure:"max_prep_time"`
	MinPromise      time.Duration `mapstructure:"min_promise"`
	MaxPromise      time.Duration `mapstructure:"max_promise"`
	MaxOrderWeight  float64       `mapstructure:"max_order_weight"`
	HistoricalCost  float64       `mapstructure:"historical_cost"`
}

type OutputConfig struct {
	Destination string `mapstructure:"destination"` // console, json, csv, parquet, kafka, postgres
	Path        string `mapstructure:"path"`
	Folder      string `mapstructure:"folder"`
	Storage     string `mapstructure:"storage"` // local or cloud, parquet only
}

type KafkaConfig struct {
	BrokerList       string `mapstructure:"broker_list"`
	Topic            string `mapstructure:"topic"`
	SessionTimeoutMs int    `mapstructure:"session_timeout_ms"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Simulation   SimulationConfig               `mapstructure:"simulation"`
	Vehicles     map[VehicleType]VehicleProfile `mapstructure:"vehicles"`
	Generator    GeneratorConfig                `mapstructure:"generator"`
	Output       OutputConfig                   `mapstructure:"output"`
	Kafka        KafkaConfig                    `mapstructure:"kafka"`
	CloudStorage CloudStorageConfig             `mapstructure:"cloud_storage"`
	Database     DatabaseConfig                 `mapstructure:"database"`
	Logging      LoggingConfig                  `mapstructure:"logging"`
	Source       string                         `mapstructure:"source"` // file or postgres
	DayFile      string                         `mapstructure:"day_file"`
	MetricsAddr  string                         `mapstructure:"metrics_addr"`
}

// LoadConfig initializes and reads the configuration using the global Viper
// instance, so flags bound by the CLI take part.
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigFrom(viper.GetViper(), cfgFile)
}

func LoadConfigFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Default config location
		v.AddConfigPath("examples")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DISPATCHSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "file")
	v.SetDefault("day_file", "day.json")

	v.SetDefault("simulation.queue_capacity", 200000)
	v.SetDefault("simulation.alert_threshold", "10m")
	v.SetDefault("simulation.max_candidate_orders", 8)
	v.SetDefault("simulation.two_opt_iterations", 50)
	v.SetDefault("simulation.max_reallocation_iterations", 16)
	v.SetDefault("simulation.distance_allowance", 1.3)
	v.SetDefault("simulation.taxi_enabled", true)
	v.SetDefault("simulation.geo_workers", 4)

	v.SetDefault("generator.seed", 42)
	v.SetDefault("generator.shops", 5)
	v.SetDefault("generator.couriers_per_shop", 3)
	v.SetDefault("generator.orders_per_shop", 40)
	v.SetDefault("generator.city_latitude", 55.7558)
	v.SetDefault("generator.city_longitude", 37.6173)
	v.SetDefault("generator.urban_radius", 8.0)
	v.SetDefault("generator.delivery_radius", 3.0)
	v.SetDefault("generator.open_hour", 9)
	v.SetDefault("generator.close_hour", 21)
	v.SetDefault("generator.min_prep_time", "10m")
	v.SetDefault("generator.max_prep_time", "40m")
	v.SetDefault("generator.min_promise", "60m")
	v.SetDefault("generator.max_promise", "120m")
	v.SetDefault("generator.max_order_weight", 6.0)
	v.SetDefault("generator.historical_cost", 0.0)

	v.SetDefault("output.destination", "console")
	v.SetDefault("output.path", "output")
	v.SetDefault("output.folder", "deliveries")
	v.SetDefault("output.storage", "local")
	v.SetDefault("kafka.broker_list", "localhost:9092")
	v.SetDefault("kafka.topic", "deliveries")
	v.SetDefault("logging.level", "info")
	v.SetDefault("database.max_conns", 4)

	// every profile field gets its own default so a config file can override
	// a single figure without restating the whole profile
	for vehicle, profile := range DefaultVehicleProfiles() {
		var fields map[string]interface{}
		if err := mapstructure.Decode(profile, &fields); err != nil {
			continue
		}
		for key, value := range fields {
			v.SetDefault("vehicles."+string(vehicle)+"."+key, value)
		}
	}
}

func (cfg *Config) Validate() error {
	sim := cfg.Simulation
	if sim.QueueCapacity <= 0 {
		return fmt.Errorf("simulation.queue_capacity must be positive")
	}
	if sim.AlertThreshold < 0 {
		return fmt.Errorf("simulation.alert_threshold cannot be negative")
	}
	if sim.MaxCandidateOrders < 1 || sim.MaxCandidateOrders > 8 {
		return fmt.Errorf("simulation.max_candidate_orders must be within 1..8, got %d", sim.MaxCandidateOrders)
	}
	if sim.MaxReallocationIterations < 1 {
		return fmt.Errorf("simulation.max_reallocation_iterations must be positive")
	}
	if sim.DistanceAllowance < 1 {
		return fmt.Errorf("simulation.distance_allowance must be at least 1")
	}
	for vehicle, profile := range cfg.Vehicles {
		if !vehicle.Valid() {
			return fmt.Errorf("unknown vehicle type %q", vehicle)
		}
		if err := profile.validate(vehicle); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the configured profile for a vehicle type, falling back to
// the built-in defaults.
func (cfg *Config) Profile(v VehicleType) (VehicleProfile, bool) {
	if p, ok := cfg.Vehicles[v]; ok {
		return p, true
	}
	p, ok := DefaultVehicleProfiles()[v]
	return p, ok
}
