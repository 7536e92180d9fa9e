package cmd

import (
	"testing"
)

func TestRootCmdRegistration(t *testing.T) {
	if rootCmd.Use != "folio" {
		t.Errorf("expected Use=%q, got %q", "folio", rootCmd.Use)
	}

	want := map[string]bool{
		"ask":     false,
		"ingest":  false,
		"serve":   false,
		"version": false,
	}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered", name)
		}
	}
}

func TestRootCmdConfigFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("expected persistent --config flag")
	}
}

func TestIngestCmdClearFlag(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("clear")
	if flag == nil {
		t.Fatal("expected --clear flag on ingest")
	}
	if flag.DefValue != "false" {
		t.Errorf("expected --clear default %q, got %q", "false", flag.DefValue)
	}
}

func TestServeCmdAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	if flag == nil {
		t.Fatal("expected --addr flag on serve")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	originalConfigPath := configPath
	defer func() { configPath = originalConfigPath }()

	configPath = "/nonexistent/folio.yaml"
	if _, _, err := loadConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
}
