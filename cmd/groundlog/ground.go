package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"groundlog"
	"groundlog/internal/config"
	"groundlog/internal/formalism"
	"groundlog/internal/grounder"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

var (
	streamRules bool
	printRules  bool
)

var groundCmd = &cobra.Command{
	Use:   "ground FILE",
	Short: "Ground a rule program file to fixpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runGround,
}

func init() {
	groundCmd.Flags().BoolVar(&streamRules, "stream", false, "print ground rules as they are emitted")
	groundCmd.Flags().BoolVar(&printRules, "rules", false, "print all ground rules after the run")
}

func runGround(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read program: %w", err)
	}
	prog, err := ParseProgram(string(data))
	if err != nil {
		return fmt.Errorf("parse program: %w", err)
	}

	eng, err := groundlog.Build(prog,
		groundlog.WithLogger(logger),
		groundlog.WithWorkers(cfg.Grounder.Workers),
		groundlog.WithFactLimit(cfg.Grounder.FactLimit),
	)
	if err != nil {
		return err
	}

	var onRule func(grounder.Event)
	if streamRules {
		onRule = func(ev grounder.Event) {
			fmt.Println(grounder.FormatGroundRule(prog, eng.Repository(), ev.GroundRule))
		}
	}

	result, err := eng.GroundWithListener(cmd.Context(), onRule)
	if err != nil && !errors.Is(err, groundlog.ErrCancelled) {
		return err
	}

	logger.Info("grounding finished",
		zap.String("run", result.RunID),
		zap.Bool("complete", result.Complete),
		zap.Int("ground_rules", len(result.GroundRules)),
		zap.Duration("ground_time", result.Stats.GroundTime),
		zap.Duration("merge_time", result.Stats.MergeTime),
	)

	fmt.Println("-- static facts")
	for _, line := range grounder.FormatFactSet(prog, eng.Repository(), formalism.Static, result.Facts) {
		fmt.Println(line)
	}
	fmt.Println("-- fluent facts")
	for _, line := range grounder.FormatFactSet(prog, eng.Repository(), formalism.Fluent, result.Facts) {
		fmt.Println(line)
	}
	if printRules && !streamRules {
		fmt.Println("-- ground rules")
		for _, gri := range result.GroundRules {
			fmt.Println(grounder.FormatGroundRule(prog, eng.Repository(), gri))
		}
	}
	if !result.Complete {
		fmt.Println(strings.TrimSpace("-- incomplete: grounding was cancelled"))
	}
	return nil
}
