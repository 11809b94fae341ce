package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	conf := &Config{}
	conf.Merchant.Secret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"
	conf.Merchant.Code = "367529286"
	conf.Merchant.Terminal = "1"
	conf.Store.Type = StoreMongo
	conf.Store.RetryAttempts = 3
	return conf
}

func TestCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "no secret", modify: func(c *Config) { c.Merchant.Secret = "" }, wantErr: true},
		{name: "no merchant code", modify: func(c *Config) { c.Merchant.Code = "" }, wantErr: true},
		{name: "unknown store", modify: func(c *Config) { c.Store.Type = "sqlite" }, wantErr: true},
		{name: "postgres without dsn", modify: func(c *Config) { c.Store.Type = StorePostgres }, wantErr: true},
		{name: "postgres", modify: func(c *Config) {
			c.Store.Type = StorePostgres
			c.Postgres.Dsn = "postgres://localhost/tours"
		}},
		{name: "no retry attempts", modify: func(c *Config) { c.Store.RetryAttempts = 0 }, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			conf := validConfig()
			tc.modify(conf)
			err := conf.Check()
			if tc.wantErr && err == nil {
				t.Fatalf("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestGetConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "merchant:\n  secret: sq7HjrUOBfKmC576ILgskD5srU870gJ7\n  code: \"367529286\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := GetConfig(path)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if conf.Merchant.Terminal != "1" || conf.Merchant.Currency != "978" || conf.Merchant.TransactionType != "1" {
		t.Fatalf("merchant defaults = %+v", conf.Merchant)
	}
	if conf.Webhook.MaxAgeSeconds != 300 || !conf.Webhook.CheckFreshness || conf.Webhook.TimeZone != "Europe/Madrid" {
		t.Fatalf("webhook defaults = %+v", conf.Webhook)
	}
	if conf.Store.Type != StoreMongo || conf.Store.RetryAttempts != 3 || conf.Store.RetryBackoff != 200*time.Millisecond {
		t.Fatalf("store defaults = %+v", conf.Store)
	}
	if conf.Merchant.Secret.Reveal() != "sq7HjrUOBfKmC576ILgskD5srU870gJ7" {
		t.Fatalf("secret not loaded")
	}
}
