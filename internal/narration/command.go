package narration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
)

// baseWPM is the speaking rate that Utterance.Rate 1.0 maps to.
const baseWPM = 175

// CommandSynthesizer speaks through a host text-to-speech binary.
type CommandSynthesizer struct {
	path string
	kind string
}

// HostSynthesizer resolves command on PATH. It returns a nil Synthesizer when
// command is empty or missing, which makes every Queue operation a no-op.
func HostSynthesizer(command string, logger *slog.Logger) Synthesizer {
	if command == "" {
		return nil
	}
	path, err := exec.LookPath(command)
	if err != nil {
		if logger != nil {
			logger.Info("speech capability not available", "command", command, "error", err)
		}
		return nil
	}
	return &CommandSynthesizer{path: path, kind: filepath.Base(path)}
}

func (c *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	cmd := exec.CommandContext(ctx, c.path, c.args(u)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c.kind, err)
	}
	return nil
}

func (c *CommandSynthesizer) args(u Utterance) []string {
	wpm := strconv.Itoa(int(math.Round(baseWPM * u.Rate)))
	switch c.kind {
	case "espeak", "espeak-ng":
		pitch := int(math.Round(50 * u.Pitch))
		pitch = max(0, min(99, pitch))
		return []string{"-s", wpm, "-p", strconv.Itoa(pitch), "--", u.Text}
	case "say":
		return []string{"-r", wpm, u.Text}
	default:
		return []string{u.Text}
	}
}
