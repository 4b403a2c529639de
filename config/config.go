package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Eursukkul/hotel-booking/internal/models"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverDynamoDB  = "dynamodb"
	DriverCassandra = "cassandra"
)

type Config struct {
	ServerPort  string
	ServiceName string

	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string

	BookingsTable  string
	InventoryTable string

	AWSRegion         string
	DynamoDBEndpoint  string
	CassandraHosts    []string
	CassandraKeyspace string

	TotalHotelRooms      int
	RoomCapacity         map[models.RoomType]int
	RoomPrices           map[models.RoomType]int
	InventoryGuard       bool
	ReconcileOnStart     bool
	MissingBookingPolicy string

	RabbitURL string

	LogLevel           string
	LogFile            string
	BreakerMaxFailures uint32
}

// Load reads configuration from the environment, after merging a .env file when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8082"),
		ServiceName: getEnv("SERVICE_NAME", "hotel-booking"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "booking_db"),
		SQLitePath:    getEnv("SQLITE_PATH", "bookings.db"),

		BookingsTable:  getEnv("BOOKINGS_TABLE", "bookings-table"),
		InventoryTable: getEnv("INVENTORY_TABLE", "inventory-table"),

		AWSRegion:         getEnv("AWS_REGION", "eu-north-1"),
		DynamoDBEndpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
		CassandraHosts:    splitList(getEnv("CASSANDRA_HOSTS", "localhost")),
		CassandraKeyspace: getEnv("CASSANDRA_KEYSPACE", "hotel"),

		MissingBookingPolicy: strings.ToLower(getEnv("MISSING_BOOKING_POLICY", "ignore")),
		RabbitURL:            getEnv("RABBITMQ_URL", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.TotalHotelRooms, err = getInt("TOTAL_HOTEL_ROOMS", 20); err != nil {
		return nil, err
	}
	if cfg.TotalHotelRooms <= 0 {
		return nil, fmt.Errorf("TOTAL_HOTEL_ROOMS must be positive, got %d", cfg.TotalHotelRooms)
	}
	if cfg.RoomCapacity, err = ParseRoomTable(getEnv("ROOM_CAPACITY", "SINGLE:1,DOUBLE:2,SUITE:3")); err != nil {
		return nil, fmt.Errorf("ROOM_CAPACITY: %w", err)
	}
	if cfg.RoomPrices, err = ParseRoomTable(getEnv("ROOM_PRICES", "SINGLE:500,DOUBLE:1000,SUITE:1500")); err != nil {
		return nil, fmt.Errorf("ROOM_PRICES: %w", err)
	}
	if cfg.InventoryGuard, err = strconv.ParseBool(getEnv("INVENTORY_GUARD", "true")); err != nil {
		return nil, fmt.Errorf("INVENTORY_GUARD: %w", err)
	}
	if cfg.ReconcileOnStart, err = strconv.ParseBool(getEnv("RECONCILE_ON_START", "true")); err != nil {
		return nil, fmt.Errorf("RECONCILE_ON_START: %w", err)
	}
	failures, err := getInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if failures < 1 {
		return nil, fmt.Errorf("BREAKER_MAX_FAILURES must be at least 1, got %d", failures)
	}
	cfg.BreakerMaxFailures = uint32(failures)

	switch cfg.StorageDriver {
	case DriverPostgres, DriverSQLite, DriverDynamoDB, DriverCassandra:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	switch cfg.MissingBookingPolicy {
	case "ignore", "reject":
	default:
		return nil, fmt.Errorf("MISSING_BOOKING_POLICY must be ignore or reject, got %q", cfg.MissingBookingPolicy)
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// ParseRoomTable parses "SINGLE:1,DOUBLE:2,SUITE:3". Every room type must appear exactly
// once with a non-negative value.
func ParseRoomTable(s string) (map[models.RoomType]int, error) {
	table := make(map[models.RoomType]int, len(models.RoomTypes))
	for _, entry := range splitList(s) {
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not TYPE:VALUE", entry)
		}
		roomType := models.RoomType(strings.ToUpper(strings.TrimSpace(key)))
		if !roomType.Valid() {
			return nil, fmt.Errorf("unknown room type %q", key)
		}
		if _, dup := table[roomType]; dup {
			return nil, fmt.Errorf("room type %s listed twice", roomType)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("value for %s: %w", roomType, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("value for %s must not be negative", roomType)
		}
		table[roomType] = n
	}

	for _, t := range models.RoomTypes {
		if _, ok := table[t]; !ok {
			return nil, fmt.Errorf("missing room type %s", t)
		}
	}
	return table, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
