package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"basebond/internal/contracts"
)

// chdir moves into dir so no ./config.* file is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfirmTimeout != 2*time.Minute || cfg.PollInterval != 2*time.Second {
		t.Fatalf("unexpected tracking defaults: %+v", cfg)
	}
	if cfg.MaxBatch != 100 || cfg.TokenDecimals != 18 || cfg.RewardRateScale != 100 {
		t.Fatalf("unexpected numeric defaults: %+v", cfg)
	}
	if cfg.Store != StoreFile || cfg.Locale != "id" || cfg.NATSSubject != "basebond.invalidate" {
		t.Fatalf("unexpected string defaults: %+v", cfg)
	}
	if len(cfg.Addresses) != 0 {
		t.Fatalf("expected no addresses, got %v", cfg.Addresses)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "basebond.yaml")
	content := "rpc: http://file\nidrx-address: \"0x00000000000000000000000000000000000000f4\"\nmax-batch: 20\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BASEBOND_MAX_BATCH", "30")
	t.Setenv("BASEBOND_EVENT_FACTORY_ADDRESS", "0x00000000000000000000000000000000000000f1")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	if err := flags.Parse([]string{"--rpc", "http://flag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "http://flag" {
		t.Fatalf("flag should win, got %s", cfg.RPCURL)
	}
	if cfg.MaxBatch != 30 {
		t.Fatalf("env should beat file, got %d", cfg.MaxBatch)
	}
	if cfg.Addresses[contracts.IDRXToken] == "" || cfg.Addresses[contracts.EventFactory] == "" {
		t.Fatalf("addresses missing: %v", cfg.Addresses)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	cases := map[string]string{
		"BASEBOND_STORE":          "s3",
		"BASEBOND_LOCALE":         "fr",
		"BASEBOND_TOKEN_DECIMALS": "80",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load("", nil); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := Config{PrivateKey: "deadbeef", PGDSN: "postgres://u:p@h/db"}
	out := cfg.Redacted()
	if out["private-key"] != "***" || out["pg-dsn"] != "***" {
		t.Fatalf("secrets leaked: %v", out)
	}
}
