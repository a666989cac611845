package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"my grandmother story": "my-grandmother-story",
		"a/b:c":                "a_b_c",
		"":                     "narrative",
		"..":                   "narrative",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 300)), 100)
}

func TestUniqueStem(t *testing.T) {
	used := make(map[string]int)
	assert.Equal(t, "story", uniqueStem(used, "story"))
	assert.Equal(t, "story-2", uniqueStem(used, "story"))
	assert.Equal(t, "other", uniqueStem(used, "other"))
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	registerDefaults(model.DefaultConfig())
	viper.SetEnvPrefix("NARRTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("NARRTL_PARSER_CONLLU", "story.conllu")
	t.Setenv("NARRTL_NARRATOR_GENDER", "female")
	t.Setenv("NARRTL_HTTP_TIMEOUT", "5s")
	t.Setenv("NARRTL_HTTP_NO_PROXY", "internal.example")

	cmd := &cobra.Command{}
	cmd.Flags().Bool("no-cache", true, "")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "story.conllu", cfg.Parser.ConllU)
	assert.Equal(t, "female", cfg.Narrator.Gender)
	assert.Equal(t, "5s", cfg.HTTP.Timeout.String())
	assert.Equal(t, "internal.example", cfg.HTTP.NoProxy)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, model.DefaultConfig().Lexicon.Path, cfg.Lexicon.Path)
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, model.DefaultConfig()))
	assert.Contains(t, buf.String(), "parser:")
	assert.Contains(t, buf.String(), "requests_per_second: 20")
}

func TestConvertCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	story := filepath.Join(dir, "story.txt")
	require.NoError(t, os.WriteFile(story, []byte("Mary went to the store.\n"), 0o644))
	out := filepath.Join(dir, "story.ttl")
	report := filepath.Join(dir, "story.json")

	rootCmd.SetArgs([]string{
		"convert", story,
		"--conllu", "../../testdata/narrative.conllu",
		"--lexicon", "../../testdata/lexicon.yaml",
		"--no-cache",
		"--out", out,
		"--report", report,
	})
	require.NoError(t, rootCmd.Execute())

	ttl, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(ttl), "@prefix")
	assert.Contains(t, string(ttl), "a :Store")

	js, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"subject": "story"`)
}
