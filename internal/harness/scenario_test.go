package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Fixture(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/inject-imbalance.yaml")

	require.NoError(t, err)
	assert.Equal(t, "inject-imbalance", s.Name)
	require.Len(t, s.Steps, 2)
	require.NotNil(t, s.Steps[0].Inject)
	assert.Equal(t, "LightChange", s.Steps[0].Inject.Kind)
	assert.Equal(t, 100.0, s.Steps[0].Inject.Magnitude)
	assert.Len(t, s.Assertions, 4)
}

func TestLoadScenario_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", "steps:\n  - repeat: 1\n"},
		{"no steps", "name: empty\n"},
		{"unknown inject kind", `
name: bad-kind
steps:
  - inject:
      kind: Sneeze
      magnitude: 1
`},
		{"negative repeat", `
name: bad-repeat
steps:
  - repeat: -1
`},
		{"negative advance", `
name: bad-advance
steps:
  - advance_ms: -5
`},
		{"unknown assertion type", `
name: bad-assertion
steps:
  - repeat: 1
assertions:
  - type: vibe_check
`},
		{"unknown assertion kind", `
name: bad-assertion-kind
steps:
  - repeat: 1
assertions:
  - type: event_count
    kind: Sneeze
    count: 1
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestProfileConfig_OverridesMergeOverDefaults(t *testing.T) {
	s := &Scenario{
		Name:    "override",
		Profile: map[string]interface{}{"deadband": 50, "gain": 0.8},
		Steps:   []Step{{}},
	}

	cfg, err := s.profileConfig()

	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Deadband)
	assert.Equal(t, 0.8, cfg.Gain)
	assert.Equal(t, 20, cfg.TickIntervalMs, "untouched fields keep defaults")
}

func TestProfileConfig_InvalidOverrideRejected(t *testing.T) {
	s := &Scenario{
		Name:    "bad-override",
		Profile: map[string]interface{}{"gain": -1},
		Steps:   []Step{{}},
	}

	_, err := s.profileConfig()
	assert.Error(t, err)
}
