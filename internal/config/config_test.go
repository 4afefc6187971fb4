package config

import (
	"os"
	"testing"
)

func TestLoadAppliesDefaultsWithNoPathOrEnv(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultConfig()
	if cfg.ListenAddr != def.ListenAddr {
		t.Fatalf("got listen addr %q, want %q", cfg.ListenAddr, def.ListenAddr)
	}
	if cfg.MetadataReloadCron != def.MetadataReloadCron {
		t.Fatalf("got cron %q, want %q", cfg.MetadataReloadCron, def.MetadataReloadCron)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("GRAPHQL_ENGINE_LISTEN_ADDR", ":9999")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("got listen addr %q, want :9999", cfg.ListenAddr)
	}
}

func TestLoadMissingConfigFileIsNotFatal(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	if err != nil {
		t.Fatalf("expected missing config file to be tolerated, got %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte("listen_addr: \":7070\"\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("got listen addr %q, want :7070", cfg.ListenAddr)
	}
}
