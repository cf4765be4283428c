package pkg

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/engine"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

// NewLogger logs to the file at dest, or to stderr when dest is empty. The
// terminal UI owns stdout, so interactive commands always pass a file.
func NewLogger(dest, name string, level zapcore.Level) (*zap.SugaredLogger, error) {
	if dest == "" {
		dest = "stderr"
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{dest}
	cfg.ErrorOutputPaths = []string{dest}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name).Sugar(), nil
}

// NewRand returns the branch picker for seed, or a time seeded one for 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// NewTracker wires a tracker to a fresh engine using the trainer settings
// of cfg.
func NewTracker(cfg *config.Config, board trainer.Board, sched trainer.Scheduler, feedback trainer.Feedback, log *zap.SugaredLogger) *trainer.LineTracker {
	return trainer.New(trainer.Options{
		Engine:       engine.New(),
		Board:        board,
		Scheduler:    sched,
		Feedback:     feedback,
		Rand:         NewRand(cfg.Seed),
		Logger:       log,
		RevertDelay:  cfg.RevertDelay,
		RestartDelay: cfg.RestartDelay,
		Lenient:      !cfg.Strict,
	})
}
