package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLinesTree(t *testing.T) {
	path := writeFile(t, "najdorf.pgn", "[Event \"Najdorf\"]\n\n1. e4 c5 2. Nf3 (2. Nc3 Nc6) 2... d6 *\n")
	out, err := run(t, "", "lines", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Game 1: Najdorf")
	assert.Contains(t, out, "6 moves, 2 branches, result *")
	assert.Contains(t, out, "\n  2. Nc3\n")
	assert.Contains(t, out, "\n2... d6\n")
	assert.NotContains(t, out, "illegal")
}

func TestLinesFromStdinAsPGN(t *testing.T) {
	out, err := run(t, "1. d4 d5 2. c4 (2. Bf4) *", "lines", "--format", "pgn")
	require.NoError(t, err)
	assert.Contains(t, out, "1. d4 d5 2. c4 (2. Bf4)\n")
}

func TestLinesReportsIllegalBranch(t *testing.T) {
	out, err := run(t, "1. e4 e5 (1... e6 2. Ke3) *", "lines")
	require.NoError(t, err)
	assert.Contains(t, out, "illegal")
	assert.Contains(t, out, "2. Ke3")
}

func TestLinesErrors(t *testing.T) {
	_, err := run(t, "1. e4 e5", "lines")
	assert.Error(t, err)

	_, err = run(t, "1. e4 *", "lines", "--format", "yaml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestPresetsCommand(t *testing.T) {
	extra := writeFile(t, "extra.yaml", "- name: Scandinavian\n  color: black\n  pgn: 1. e4 d5 2. exd5 Qxd5 *\n")
	out, err := run(t, "", "presets", "--presets", extra)
	require.NoError(t, err)
	for _, name := range presets.Builtin().Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "Scandinavian")
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "", "presets", "--log-level", "loud")
	assert.Error(t, err)
}

func TestResolveLine(t *testing.T) {
	catalog := presets.Builtin()
	caro, _ := catalog.Find("Caro-Kann")
	file := writeFile(t, "line.pgn", "1. e4 e5 *")

	tests := []struct {
		name     string
		opts     lineOptions
		colorSet bool
		text     string
		player   trainer.Color
		err      bool
	}{
		{"preset brings its color", lineOptions{preset: "Caro-Kann", color: "white"}, false, caro.PGN, trainer.Black, false},
		{"color flag overrides preset", lineOptions{preset: "Caro-Kann", color: "white"}, true, caro.PGN, trainer.White, false},
		{"pgn", lineOptions{pgn: "1. d4 *", color: "b"}, true, "1. d4 *", trainer.Black, false},
		{"file", lineOptions{file: file, color: "white"}, false, "1. e4 e5 *", trainer.White, false},
		{"unknown preset", lineOptions{preset: "Bongcloud", color: "white"}, false, "", trainer.White, true},
		{"bad color", lineOptions{pgn: "1. d4 *", color: "red"}, true, "", trainer.White, true},
		{"nothing", lineOptions{color: "white"}, false, "", trainer.White, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, player, err := tt.opts.resolve(catalog, tt.colorSet)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.player, player)
		})
	}
}

func TestStrictFlagHelp(t *testing.T) {
	out, err := run(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "panic on a board move the engine rejects")
}
