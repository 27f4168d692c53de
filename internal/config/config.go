package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string

	// Database. Empty DBUrl runs the service on the in-memory store (local
	// development only).
	DBUrl string

	// External services
	GMapsRoutesAPIKey string

	// Twilio / SendGrid for fulfillment notifications
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromPhone   string
	SendGridAPIKey    string
	SendGridFromEmail string

	// Auth
	RSAPrivateKey *rsa.PrivateKey
	RSAPublicKey  *rsa.PublicKey

	// Fulfillment policy knobs
	GeofenceRadiusMeters float64
	CheckInEarlyWindow   time.Duration

	// LaunchDarkly flags
	LDFlag_UseGMapsRoutesAPI   bool
	LDFlag_SeedDbWithTestData  bool
	LDFlag_SendgridSandboxMode bool
}

const LDConnectionTimeout = 5 * time.Second

func LoadConfig() *Config {
	// .env is optional; real deployments inject env vars directly.
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found, reading environment directly")
	}

	appName := os.Getenv("APP_NAME")
	if appName == "" {
		appName = "fulfillment-service"
	}
	utils.Logger.Info("Loading config for app: ", appName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		appUrl = "http://localhost:" + appPort
	}

	cfg := &Config{
		AppName: appName,
		AppPort: appPort,
		AppUrl:  appUrl,
		DBUrl:   os.Getenv("DB_URL"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:   os.Getenv("TWILIO_FROM_PHONE"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),

		GeofenceRadiusMeters: constants.DefaultGeofenceRadiusMeters,
		CheckInEarlyWindow:   constants.DefaultCheckInEarlyWindow,
	}

	if cfg.DBUrl == "" {
		utils.Logger.Warn("DB_URL not set, running on the in-memory store")
	}
	if cfg.TwilioFromPhone == "" {
		cfg.TwilioFromPhone = "+10005550006"
	}
	if cfg.SendGridFromEmail == "" {
		cfg.SendGridFromEmail = "no-reply@shiftloop.app"
	}

	if v := os.Getenv("GEOFENCE_RADIUS_METERS"); v != "" {
		radius, err := strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			utils.Logger.Fatalf("GEOFENCE_RADIUS_METERS invalid: %q", v)
		}
		cfg.GeofenceRadiusMeters = radius
	}
	if v := os.Getenv("CHECKIN_EARLY_WINDOW_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			utils.Logger.Fatalf("CHECKIN_EARLY_WINDOW_MINUTES invalid: %q", v)
		}
		cfg.CheckInEarlyWindow = time.Duration(minutes) * time.Minute
	}

	loadRSAKeys(cfg)
	loadLDFlags(cfg)

	if cfg.LDFlag_UseGMapsRoutesAPI {
		cfg.GMapsRoutesAPIKey = os.Getenv("GMAPS_ROUTES_API_KEY")
		if cfg.GMapsRoutesAPIKey == "" {
			utils.Logger.Fatal("GMAPS_ROUTES_API_KEY missing but use_gmaps_routes_api flag enabled")
		}
	}

	return cfg
}

func loadRSAKeys(cfg *Config) {
	privB64 := os.Getenv("RSA_PRIVATE_KEY_BASE64")
	pubB64 := os.Getenv("RSA_PUBLIC_KEY_BASE64")
	if privB64 == "" || pubB64 == "" {
		utils.Logger.Fatal("RSA_PRIVATE_KEY_BASE64 / RSA_PUBLIC_KEY_BASE64 env vars are missing")
	}

	privPEM, err := base64.StdEncoding.DecodeString(privB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PRIVATE_KEY_BASE64 is not valid base64")
	}
	if block, _ := pem.Decode(privPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for private key")
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA private key")
	}

	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	cfg.RSAPrivateKey = privKey
	cfg.RSAPublicKey = pubKey
}

// loadLDFlags reads feature flags from LaunchDarkly when LD_SDK_KEY is set.
// Without a key all flags keep their zero defaults, which is the right local
// behavior (no GMaps billing, no seeding, live SendGrid disabled anyway).
func loadLDFlags(cfg *Config) {
	sdkKey := os.Getenv("LD_SDK_KEY")
	if sdkKey == "" {
		utils.Logger.Debug("LD_SDK_KEY not set, feature flags default to off")
		return
	}

	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind("service", cfg.AppName)

	cfg.LDFlag_UseGMapsRoutesAPI, err = ldClient.BoolVariation("use_gmaps_routes_api", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving use_gmaps_routes_api flag")
	}
	utils.Logger.Debugf("use_gmaps_routes_api flag: %t", cfg.LDFlag_UseGMapsRoutesAPI)

	cfg.LDFlag_SeedDbWithTestData, err = ldClient.BoolVariation("seed_db_with_test_data", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", cfg.LDFlag_SeedDbWithTestData)

	cfg.LDFlag_SendgridSandboxMode, err = ldClient.BoolVariation("sendgrid_sandbox_mode", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", cfg.LDFlag_SendgridSandboxMode)
}

func (c *Config) Close() {}
