package config

import "testing"

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Providers: map[string]ProviderConfig{
				"openai": {
					APIKey:  "test-key",
					BaseURL: "https://api.example.com/v1/",
					Budget: BudgetConfig{
						DailyTokenLimit: 1000000,
						Action:          "invalid_action",
					},
				},
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.openai.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Addrs: []string{"localhost:6379"},
				},
				Embedding: EmbeddingConfig{
					Providers: map[string]ProviderConfig{
						"openai": {
							APIKey: "test-key",
							Budget: BudgetConfig{
								Action: action,
							},
						},
					},
				},
			}

			err := cfg.Validate()
			if err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_SemanticWeightOutOfRange(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Search: SearchConfig{SemanticWeight: 1.5},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for semantic weight above 1")
	}
}

func TestValidate_KeywordThresholdOutOfRange(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Search: SearchConfig{Keyword: KeywordConfig{Threshold: 2}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for keyword threshold above 1")
	}
}

func TestValidate_NegativeKeywordWeight(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Search: SearchConfig{
			Keyword: KeywordConfig{Weights: map[string]float64{"bio": -0.5}},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative keyword field weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Cache.SnapshotTTLSec != 300 {
		t.Errorf("expected SnapshotTTLSec=300, got %d", cfg.Cache.SnapshotTTLSec)
	}
	if cfg.Cache.RemoteTTLSec != 600 {
		t.Errorf("expected RemoteTTLSec=600, got %d", cfg.Cache.RemoteTTLSec)
	}
	if cfg.Cache.FilteredTTLSec != 300 {
		t.Errorf("expected FilteredTTLSec=300, got %d", cfg.Cache.FilteredTTLSec)
	}
	if cfg.Cache.FilteredCapacity != 20 {
		t.Errorf("expected FilteredCapacity=20, got %d", cfg.Cache.FilteredCapacity)
	}
	if cfg.Cache.RefreshIntervalSec != 0 {
		t.Errorf("expected RefreshIntervalSec=0, got %d", cfg.Cache.RefreshIntervalSec)
	}
	if cfg.Search.SemanticWeight != 0.7 {
		t.Errorf("expected SemanticWeight=0.7, got %g", cfg.Search.SemanticWeight)
	}
	if cfg.Search.EmbedTimeoutSec != 5 {
		t.Errorf("expected EmbedTimeoutSec=5, got %d", cfg.Search.EmbedTimeoutSec)
	}
	if cfg.Search.Keyword.Threshold != 0.8 {
		t.Errorf("expected Threshold=0.8, got %g", cfg.Search.Keyword.Threshold)
	}
	if cfg.Index.VectorDim != 1536 {
		t.Errorf("expected VectorDim=1536, got %d", cfg.Index.VectorDim)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Cache:    CacheConfig{SnapshotTTLSec: 60, RemoteTTLSec: 120, FilteredTTLSec: 30, FilteredCapacity: 5},
		Search:   SearchConfig{SemanticWeight: 0.5, EmbedTimeoutSec: 2, Keyword: KeywordConfig{Threshold: 0.9}},
		Index:    IndexConfig{VectorDim: 768},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.SnapshotTTLSec != 60 {
		t.Errorf("expected SnapshotTTLSec=60, got %d", cfg.Cache.SnapshotTTLSec)
	}
	if cfg.Cache.FilteredCapacity != 5 {
		t.Errorf("expected FilteredCapacity=5, got %d", cfg.Cache.FilteredCapacity)
	}
	if cfg.Search.SemanticWeight != 0.5 {
		t.Errorf("expected SemanticWeight=0.5, got %g", cfg.Search.SemanticWeight)
	}
	if cfg.Search.Keyword.Threshold != 0.9 {
		t.Errorf("expected Threshold=0.9, got %g", cfg.Search.Keyword.Threshold)
	}
	if cfg.Index.VectorDim != 768 {
		t.Errorf("expected VectorDim=768, got %d", cfg.Index.VectorDim)
	}
}
