package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearModeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PACKSPLIT_MODE", "")
	t.Setenv("NODE_ENV", "")
}

func TestResolveMode_FlagPrecedence(t *testing.T) {
	clearModeEnv(t)
	t.Setenv("PACKSPLIT_MODE", "development")
	t.Setenv("NODE_ENV", "production")

	rv := ResolveMode(ResolveModeOptions{
		FlagValue:   "production",
		ConfigValue: "development",
	})

	assert.Equal(t, "mode", rv.Key)
	assert.Equal(t, "production", rv.Value)
	assert.Equal(t, SourceFlag, rv.Source)
	assert.Equal(t, "development", rv.Shadowed[SourceEnv])
	assert.Equal(t, "production", rv.Shadowed[SourceNodeEnv])
	assert.Equal(t, "development", rv.Shadowed[SourceConfig])
	assert.Equal(t, "development", rv.Shadowed[SourceDefault])
}

func TestResolveMode_EnvPrecedence(t *testing.T) {
	clearModeEnv(t)
	t.Setenv("PACKSPLIT_MODE", "production")

	rv := ResolveMode(ResolveModeOptions{ConfigValue: "development"})

	assert.Equal(t, "production", rv.Value)
	assert.Equal(t, SourceEnv, rv.Source)
	assert.Equal(t, "development", rv.Shadowed[SourceConfig])
	assert.NotContains(t, rv.Shadowed, SourceFlag)
}

func TestResolveMode_NodeEnv(t *testing.T) {
	tests := []struct {
		nodeEnv string
		want    string
	}{
		{nodeEnv: "production", want: ModeProduction},
		{nodeEnv: "development", want: ModeDevelopment},
		{nodeEnv: "test", want: ModeDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.nodeEnv, func(t *testing.T) {
			clearModeEnv(t)
			t.Setenv("NODE_ENV", tt.nodeEnv)

			rv := ResolveMode(ResolveModeOptions{ConfigValue: "development"})
			assert.Equal(t, tt.want, rv.Value)
			assert.Equal(t, SourceNodeEnv, rv.Source)
		})
	}
}

func TestResolveMode_ConfigFallback(t *testing.T) {
	clearModeEnv(t)

	rv := ResolveMode(ResolveModeOptions{ConfigValue: "production"})

	assert.Equal(t, "production", rv.Value)
	assert.Equal(t, SourceConfig, rv.Source)
	assert.Equal(t, "development", rv.Shadowed[SourceDefault])
}

func TestResolveMode_Default(t *testing.T) {
	clearModeEnv(t)

	rv := ResolveMode(ResolveModeOptions{})

	assert.Equal(t, ModeDevelopment, rv.Value)
	assert.Equal(t, SourceDefault, rv.Source)
	assert.Empty(t, rv.Shadowed)
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		t.Setenv("PACKSPLIT_CONFIG", "/env/packsplit.yaml")

		rv := ResolveConfigPath("/flag/packsplit.yaml")
		assert.Equal(t, "/flag/packsplit.yaml", rv.Value)
		assert.Equal(t, SourceFlag, rv.Source)
		assert.Equal(t, "/env/packsplit.yaml", rv.Shadowed[SourceEnv])
		assert.Equal(t, DefaultConfigFile, rv.Shadowed[SourceDefault])
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("PACKSPLIT_CONFIG", "/env/packsplit.yaml")

		rv := ResolveConfigPath("")
		assert.Equal(t, "/env/packsplit.yaml", rv.Value)
		assert.Equal(t, SourceEnv, rv.Source)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("PACKSPLIT_CONFIG", "")

		rv := ResolveConfigPath("")
		assert.Equal(t, DefaultConfigFile, rv.Value)
		assert.Equal(t, SourceDefault, rv.Source)
	})
}

func TestResolveString(t *testing.T) {
	rv := ResolveString("output.dir", "", "build", "dist")
	assert.Equal(t, "build", rv.Value)
	assert.Equal(t, SourceConfig, rv.Source)
	assert.Equal(t, "dist", rv.Shadowed[SourceDefault])
}
