// Package config loads server settings: defaults, then an optional TOML file,
// then command-line flags that were set explicitly.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/threat"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DefaultCipherKey is the key of the default xor cipher.
const DefaultCipherKey = "MySecretKey123"

// Duration is a time.Duration that reads from TOML strings like "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full server configuration.
type Config struct {
	Addr         string        `toml:"addr"`
	Store        string        `toml:"store"` // "memory" or "postgres"
	DSN          string        `toml:"dsn"`   // only used for store=postgres
	JWTKey       string        `toml:"jwt_key"`
	AccessTTL    Duration      `toml:"access_ttl"`
	TLSCert      string        `toml:"tls_cert"`
	TLSKey       string        `toml:"tls_key"`
	Dev          bool          `toml:"dev"`
	PasswordHash string        `toml:"password_hash"` // "legacy" or "argon2"
	Fingerprint  string        `toml:"fingerprint"`   // "djb2" or "sha256"
	Cipher       CipherConfig  `toml:"cipher"`
	Gate         GateConfig    `toml:"gate"`
	OTP          OTPConfig     `toml:"otp"`
	Limiter      LimiterConfig `toml:"limiter"`
}

// CipherConfig selects the content cipher.
type CipherConfig struct {
	Kind string `toml:"kind"` // "xor", "xchacha20poly1305" or "age"
	Key  string `toml:"key"`
}

// GateConfig mirrors threat.Config.
type GateConfig struct {
	MaxFilenameLen  int      `toml:"max_filename_len"`
	MaxContentLen   int      `toml:"max_content_len"`
	Signatures      []string `toml:"signatures"`
	DigestBlacklist []string `toml:"digest_blacklist"`
}

// Threat converts to the gate's own config type.
func (g GateConfig) Threat() threat.Config {
	return threat.Config{
		MaxFilenameLen:  g.MaxFilenameLen,
		MaxContentLen:   g.MaxContentLen,
		Signatures:      g.Signatures,
		DigestBlacklist: g.DigestBlacklist,
	}
}

// OTPConfig controls one-time codes. TTL 0 means codes never expire.
type OTPConfig struct {
	TTL Duration `toml:"ttl"`
}

// LimiterConfig controls attempt limiting. MaxFails 0 disables it.
type LimiterConfig struct {
	Window   Duration `toml:"window"`
	MaxFails int      `toml:"max_fails"`
	BlockFor Duration `toml:"block_for"`
}

// Enabled reports whether attempt limiting is on.
func (l LimiterConfig) Enabled() bool { return l.MaxFails > 0 }

// Default returns the built-in configuration. JWTKey is left empty and must be supplied.
func Default() *Config {
	tc := threat.DefaultConfig()
	return &Config{
		Addr:         ":8443",
		Store:        StoreMemory,
		AccessTTL:    Duration{15 * time.Minute},
		PasswordHash: crypto.HasherLegacy,
		Fingerprint:  crypto.FingerprintDJB2,
		Cipher:       CipherConfig{Kind: crypto.CipherXOR, Key: DefaultCipherKey},
		Gate: GateConfig{
			MaxFilenameLen:  tc.MaxFilenameLen,
			MaxContentLen:   tc.MaxContentLen,
			Signatures:      tc.Signatures,
			DigestBlacklist: tc.DigestBlacklist,
		},
		Limiter: LimiterConfig{
			Window:   Duration{15 * time.Minute},
			BlockFor: Duration{15 * time.Minute},
		},
	}
}

// ReadFromFile decodes a TOML file over the defaults.
func ReadFromFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the configuration from args (without the program name).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("secvault-server", flag.ContinueOnError)
	def := Default()

	path := fs.String("config", "", "TOML config file")
	addr := fs.String("addr", def.Addr, "listen address")
	store := fs.String("store", def.Store, "storage backend: memory|postgres")
	dsn := fs.String("dsn", "", "PostgreSQL DSN (store=postgres)")
	jwtKey := fs.String("jwt-key", "", "HS256 signing key (required)")
	accessTTL := fs.Duration("access-ttl", def.AccessTTL.Duration, "access token TTL")
	certFile := fs.String("tls-cert", "", "TLS certificate (PEM)")
	keyFile := fs.String("tls-key", "", "TLS private key (PEM)")
	dev := fs.Bool("dev", false, "enable server reflection (dev only)")
	cipherKind := fs.String("cipher", def.Cipher.Kind, "content cipher: xor|xchacha20poly1305|age")
	cipherKey := fs.String("cipher-key", def.Cipher.Key, "content cipher key")
	pwHash := fs.String("password-hash", def.PasswordHash, "password hash: legacy|argon2")
	fp := fs.String("fingerprint", def.Fingerprint, "content fingerprint: djb2|sha256")
	otpTTL := fs.Duration("otp-ttl", 0, "one-time code lifetime (0: no expiry)")
	maxFails := fs.Int("max-fails", 0, "failed attempts before lockout (0: off)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := def
	if *path != "" {
		var err error
		if cfg, err = ReadFromFile(*path); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "store":
			cfg.Store = *store
		case "dsn":
			cfg.DSN = *dsn
		case "jwt-key":
			cfg.JWTKey = *jwtKey
		case "access-ttl":
			cfg.AccessTTL = Duration{*accessTTL}
		case "tls-cert":
			cfg.TLSCert = *certFile
		case "tls-key":
			cfg.TLSKey = *keyFile
		case "dev":
			cfg.Dev = *dev
		case "cipher":
			cfg.Cipher.Kind = *cipherKind
		case "cipher-key":
			cfg.Cipher.Key = *cipherKey
		case "password-hash":
			cfg.PasswordHash = *pwHash
		case "fingerprint":
			cfg.Fingerprint = *fp
		case "otp-ttl":
			cfg.OTP.TTL = Duration{*otpTTL}
		case "max-fails":
			cfg.Limiter.MaxFails = *maxFails
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, a ...any) {
		problems = append(problems, fmt.Errorf(format, a...))
	}

	if c.JWTKey == "" {
		add("missing jwt signing key (jwt_key / -jwt-key)")
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DSN == "" {
			add("store %q requires dsn", c.Store)
		}
	default:
		add("unknown store %q", c.Store)
	}
	if c.AccessTTL.Duration <= 0 {
		add("access_ttl must be positive")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		add("tls_cert and tls_key must be set together")
	}
	if c.Cipher.Key == "" {
		add("cipher key is empty")
	}
	switch c.Cipher.Kind {
	case crypto.CipherXOR, crypto.CipherXChaCha, crypto.CipherAge:
	default:
		add("unknown cipher %q", c.Cipher.Kind)
	}
	switch c.PasswordHash {
	case crypto.HasherLegacy, crypto.HasherArgon2:
	default:
		add("unknown password_hash %q", c.PasswordHash)
	}
	switch c.Fingerprint {
	case crypto.FingerprintDJB2, crypto.FingerprintSHA256:
	default:
		add("unknown fingerprint %q", c.Fingerprint)
	}
	if c.Gate.MaxFilenameLen <= 0 || c.Gate.MaxContentLen <= 0 {
		add("gate limits must be positive")
	}
	if c.OTP.TTL.Duration < 0 {
		add("otp ttl must not be negative")
	}
	if c.Limiter.MaxFails < 0 {
		add("limiter max_fails must not be negative")
	}
	if c.Limiter.Enabled() && (c.Limiter.Window.Duration <= 0 || c.Limiter.BlockFor.Duration <= 0) {
		add("limiter window and block_for must be positive")
	}
	return errors.Join(problems...)
}
