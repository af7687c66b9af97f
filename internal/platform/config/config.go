package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"inro/pkg/validation"
)

// Defaults. The signing key default only exists so `go run` works locally;
// production refuses to start with it.
const (
	DefaultAddr              = ":8080"
	DefaultEnvironment       = "development"
	DefaultLogLevel          = "info"
	DefaultAttestationTTL    = 10 * time.Minute
	DefaultAttestationIssuer = "inro"
	DefaultAttestationAud    = "age-gate"
	DefaultRateLimitRPS      = 5.0
	DefaultRateLimitBurst    = 10
	DefaultSessionTimeout    = 20 * time.Second
	DefaultMaxBodyBytes      = 64 * 1024
	DefaultRequestTimeout    = 30 * time.Second

	devSigningKey = "dev-attestation-key-change-in-production"
)

// Server captures process configuration.
type Server struct {
	Addr        string `validate:"required"`
	Environment string `validate:"oneof=development staging production test"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	Attestation Attestation

	// NFCAvailable selects the supported or unsupported card capability.
	NFCAvailable bool

	RateLimitRPS   float64       `validate:"gte=0"`
	RateLimitBurst int           `validate:"gte=1"`
	SessionTimeout time.Duration `validate:"gt=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	MaxBodyBytes   int64         `validate:"gte=1024"`

	// TrustedProxies may set X-Forwarded-For. Empty trusts nobody.
	TrustedProxies []netip.Prefix

	// TracingEndpoint is an OTLP/HTTP collector URL. Empty disables export.
	TracingEndpoint string `validate:"omitempty,url"`
}

// Attestation configures signed age-over tokens.
type Attestation struct {
	SigningKey string        `validate:"required,min=32"`
	TTL        time.Duration `validate:"gt=0"`
	Issuer     string        `validate:"required"`
	Audience   string        `validate:"required"`
}

// IsProduction reports whether the server runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := Server{
		Addr:        get("INRO_ADDR", DefaultAddr),
		Environment: get("INRO_ENV", DefaultEnvironment),
		LogLevel:    get("LOG_LEVEL", DefaultLogLevel),
		Attestation: Attestation{
			SigningKey: get("ATTESTATION_SIGNING_KEY", devSigningKey),
			Issuer:     get("ATTESTATION_ISSUER", DefaultAttestationIssuer),
			Audience:   get("ATTESTATION_AUDIENCE", DefaultAttestationAud),
		},
	}

	var err error
	if cfg.Attestation.TTL, err = duration(get("ATTESTATION_TTL", ""), DefaultAttestationTTL); err != nil {
		return Server{}, fmt.Errorf("ATTESTATION_TTL: %w", err)
	}
	if cfg.SessionTimeout, err = duration(get("SESSION_TIMEOUT", ""), DefaultSessionTimeout); err != nil {
		return Server{}, fmt.Errorf("SESSION_TIMEOUT: %w", err)
	}
	if cfg.RequestTimeout, err = duration(get("REQUEST_TIMEOUT", ""), DefaultRequestTimeout); err != nil {
		return Server{}, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if cfg.NFCAvailable, err = strconv.ParseBool(get("NFC_AVAILABLE", "true")); err != nil {
		return Server{}, fmt.Errorf("NFC_AVAILABLE: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", strconv.FormatFloat(DefaultRateLimitRPS, 'f', -1, 64)), 64); err != nil {
		return Server{}, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", strconv.Itoa(DefaultRateLimitBurst))); err != nil {
		return Server{}, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(get("MAX_BODY_BYTES", strconv.Itoa(DefaultMaxBodyBytes)), 10, 64); err != nil {
		return Server{}, fmt.Errorf("MAX_BODY_BYTES: %w", err)
	}
	cfg.TracingEndpoint = get("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if cfg.TrustedProxies, err = prefixes(get("TRUSTED_PROXIES", "")); err != nil {
		return Server{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	if err := validation.Validate(cfg); err != nil {
		return Server{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IsProduction() && cfg.Attestation.SigningKey == devSigningKey {
		return Server{}, fmt.Errorf("invalid configuration: ATTESTATION_SIGNING_KEY must be set in production")
	}
	return cfg, nil
}

func duration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}

// prefixes parses a comma-separated CIDR list. Bare addresses become
// single-host prefixes.
func prefixes(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, err
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Masked())
	}
	return out, nil
}
