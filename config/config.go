package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultTimeZone           = "Local"
	defaultLockWaitTimeout    = 3 * time.Second
	defaultLockTTL            = 10 * time.Second
	defaultQRCodeSize         = 256
	defaultAccessTTL          = 12 * time.Hour
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Lock drivers.
const (
	LockDriverMemory = "memory"
	LockDriverRedis  = "redis"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// SecretKey.Access verifies bearer tokens issued by the identity service.
	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Storage *StorageConfig `json:"storage" yaml:"storage"`

	// Allotment holds the collection workflow policy knobs.
	Allotment *AllotmentConfig `json:"allotment" yaml:"allotment"`

	Lock *LockConfig `json:"lock" yaml:"lock"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// PubSub configuration for allotment lifecycle events
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	// Firebase configuration for push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// QRCode configuration for acknowledgment QR codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`
}

// SecretKeyConfig holds the token signing settings.
type SecretKeyConfig struct {
	Access    string        `json:"access" yaml:"access"`
	AccessTTL time.Duration `json:"accessTTL" yaml:"accessTTL"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "postgres" (default) or "memory"
	Driver string `json:"driver" yaml:"driver"`

	// AutoMigrate creates or updates the tables when the service starts.
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`

	// SlowQueryThreshold marks statements logged as slow; zero keeps the default.
	SlowQueryThreshold time.Duration `json:"slowQueryThreshold" yaml:"slowQueryThreshold"`

	// Seed preloads the memory driver's roster and resident registry.
	Seed *SeedConfig `json:"seed" yaml:"seed"`
}

// SeedConfig is the roster loaded into the memory driver at startup.
type SeedConfig struct {
	Inchargers []SeedIncharger `json:"inchargers" yaml:"inchargers"`
	Labours    []SeedLabour    `json:"labours" yaml:"labours"`
	Residents  []SeedResident  `json:"residents" yaml:"residents"`
}

// SeedIncharger is one incharger row; ID is optional and generated when empty.
type SeedIncharger struct {
	ID          string `json:"id" yaml:"id"`
	BusinessID  string `json:"businessId" yaml:"businessId"`
	Name        string `json:"name" yaml:"name"`
	PhoneNumber string `json:"phoneNumber" yaml:"phoneNumber"`
	Area        string `json:"area" yaml:"area"`
}

// SeedLabour is one labour row. Incharger accepts either identifier form.
type SeedLabour struct {
	ID          string   `json:"id" yaml:"id"`
	BusinessID  string   `json:"businessId" yaml:"businessId"`
	Name        string   `json:"name" yaml:"name"`
	PhoneNumber string   `json:"phoneNumber" yaml:"phoneNumber"`
	Incharger   string   `json:"incharger" yaml:"incharger"`
	Streets     []string `json:"streets" yaml:"streets"`
	DeviceToken string   `json:"deviceToken" yaml:"deviceToken"`
}

// SeedResident is one resident registry flag.
type SeedResident struct {
	UserID      string `json:"userId" yaml:"userId"`
	Street      string `json:"street" yaml:"street"`
	TodayStatus string `json:"todayStatus" yaml:"todayStatus"`
}

// AllotmentConfig defines the allotment workflow behaviour.
type AllotmentConfig struct {
	// CollectionPolicy decides what a labour collection does to todayStatus:
	// "flip_to_no" (default) or "hold_pending".
	CollectionPolicy string `json:"collectionPolicy" yaml:"collectionPolicy"`

	// StrictCoordinates rejects non-numeric coordinates instead of coercing them to 0.
	StrictCoordinates bool `json:"strictCoordinates" yaml:"strictCoordinates"`

	// TimeZone is the IANA zone used to decide which date is "today".
	TimeZone string `json:"timeZone" yaml:"timeZone"`
}

// LockConfig defines the per-allotment lock.
type LockConfig struct {
	// Driver is "memory" (default) or "redis"
	Driver      string        `json:"driver" yaml:"driver"`
	WaitTimeout time.Duration `json:"waitTimeout" yaml:"waitTimeout"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
	KeyPrefix   string        `json:"keyPrefix" yaml:"keyPrefix"`
}

// RedisConfig defines the redis connection used by the distributed lock.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local", "google" or "mqtt"; empty disables publishing
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider) or topic prefix (for mqtt provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	MQTT *MQTTConfig `json:"mqtt" yaml:"mqtt"`
}

// MQTTConfig defines the broker used by the mqtt provider.
type MQTTConfig struct {
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"clientId" yaml:"clientId"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	QoS      byte   `json:"qos" yaml:"qos"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(searchPaths, currEnv+".yaml")
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Env overrides: ALLOTMENT_COLLECTIONPOLICY -> allotment.collectionPolicy
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// ApplyDefaults fills optional sections so the rest of the service can read them without nil checks.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if c.SecretKey.AccessTTL <= 0 {
		c.SecretKey.AccessTTL = defaultAccessTTL
	}

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}

	if c.Allotment == nil {
		c.Allotment = &AllotmentConfig{}
	}
	if c.Allotment.TimeZone == "" {
		c.Allotment.TimeZone = defaultTimeZone
	}

	if c.Lock == nil {
		c.Lock = &LockConfig{}
	}
	if c.Lock.Driver == "" {
		c.Lock.Driver = LockDriverMemory
	}
	if c.Lock.WaitTimeout <= 0 {
		c.Lock.WaitTimeout = defaultLockWaitTimeout
	}
	if c.Lock.TTL <= 0 {
		c.Lock.TTL = defaultLockTTL
	}
	if c.Lock.KeyPrefix == "" {
		c.Lock.KeyPrefix = "cleancity:allotment:lock:"
	}

	if c.QRCode == nil {
		c.QRCode = &QRCodeConfig{}
	}
	if c.QRCode.Size <= 0 {
		c.QRCode.Size = defaultQRCodeSize
	}
}

// Location resolves the configured allotment time zone.
func (c *AllotmentConfig) Location() (*time.Location, error) {
	if c == nil || c.TimeZone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrapf(err, "load time zone %q", c.TimeZone)
	}

	return loc, nil
}

func findConfigFile(searchPaths []string, name string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Format: POSTGRES_REPLICAS_{index}_{HOST|PORT|USERNAME|PASSWORD}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
