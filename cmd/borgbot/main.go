package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/borglike/bot/internal/bot"
	"github.com/borglike/bot/internal/config"
	"github.com/borglike/bot/internal/core/event"
	"github.com/borglike/bot/internal/data"
	"github.com/borglike/bot/internal/persist"
	"github.com/borglike/bot/internal/scripting"
	"github.com/borglike/bot/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          borglike autoplayer  v0.1.0      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main sim logic ─────────────────────────────────────────────────

func run() error {
	_ = godotenv.Load()

	// 1. Load config
	cfgPath := "config/borgbot.toml"
	if p := os.Getenv("BORGBOT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Defaults()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Optional PostgreSQL for run statistics
	var runsRepo *persist.RunsRepo
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		runsRepo = persist.NewRunsRepo(db)
		printOK("PostgreSQL connected, migrations applied")
		fmt.Println()
	}

	// 4. Load data tables
	printSection("data")
	monsterTable, err := data.LoadMonsterTable(dataPath(cfg, "monster_list.yaml"))
	if err != nil {
		return fmt.Errorf("load monster table: %w", err)
	}
	printStat("monster templates", monsterTable.Count())

	itemTable, err := data.LoadItemTable(dataPath(cfg, "item_list.yaml"))
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	classTable, err := data.LoadClassTable(dataPath(cfg, "class_list.yaml"))
	if err != nil {
		return fmt.Errorf("load class table: %w", err)
	}
	printStat("class profiles", classTable.Count())

	// 5. Lua combat formulas
	luaEngine, err := scripting.NewEngine(cfg.Sim.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua combat formulas loaded")
	fmt.Println()

	// 6. Run agents, one world and one BotState each.
	agents := cfg.Sim.Agents
	if agents < 1 {
		agents = 1
	}
	printSection("run")
	printStat("agents", agents)
	printStat("max turns", cfg.Sim.MaxTurns)
	fmt.Println()

	var g errgroup.Group
	for i := 0; i < agents; i++ {
		i := i
		g.Go(func() error {
			seed := cfg.Sim.Seed + int64(i)
			return runAgent(cfg, seed, monsterTable, itemTable, classTable, luaEngine, runsRepo,
				log.With(zap.Int("agent", i), zap.Int64("seed", seed)))
		})
	}
	return g.Wait()
}

// runAgent drives one character from the town as deep as it gets.
func runAgent(cfg *config.Config, seed int64, monsters *data.MonsterTable, items *data.ItemTable, classes *data.ClassTable, lua *scripting.Engine, runsRepo *persist.RunsRepo, log *zap.Logger) error {
	pers := bot.PresetPersonality(cfg.Bot.Preset, bot.Personality{
		Aggression:  cfg.Bot.Aggression,
		Greed:       cfg.Bot.Greed,
		Caution:     cfg.Bot.Caution,
		Exploration: cfg.Bot.Exploration,
		Patience:    cfg.Bot.Patience,
	})
	caps := bot.Capabilities{
		Tactics:         cfg.Capabilities.Tactics,
		Retreat:         cfg.Capabilities.Retreat,
		Sweep:           cfg.Capabilities.Sweep,
		Surf:            cfg.Capabilities.Surf,
		Kiting:          cfg.Capabilities.Kiting,
		Targeting:       cfg.Capabilities.Targeting,
		Preparedness:    cfg.Capabilities.Preparedness,
		Town:            cfg.Capabilities.Town,
		Farming:         cfg.Capabilities.Farming,
		SweepRange:      bot.DepthRange{Start: cfg.Capabilities.SweepStart, End: cfg.Capabilities.SweepEnd},
		SurfRange:       bot.DepthRange{Start: cfg.Capabilities.SurfStart, End: cfg.Capabilities.SurfEnd},
		DepthGateOffset: cfg.Capabilities.DepthGateOffset,
	}

	bus := event.NewBus()
	maxDepth := 0
	event.Subscribe(bus, func(ev event.LevelChanged) {
		if ev.Depth > maxDepth {
			maxDepth = ev.Depth
		}
		log.Info("level change", zap.Int("depth", ev.Depth), zap.Int("turn", ev.Turn))
	})
	event.Subscribe(bus, func(ev event.GoalChanged) {
		log.Debug("goal", zap.String("from", ev.From), zap.String("to", ev.To), zap.String("reason", ev.Reason))
	})
	event.Subscribe(bus, func(ev event.FarmingStarted) {
		log.Info("farming", zap.Int("blocked_depth", ev.BlockedDepth), zap.String("reason", ev.Reason))
	})

	engine := bot.New(pers, caps, classes, bot.WithBus(bus), bot.WithLogger(log))
	w := world.NewWorld(seed, cfg.Bot.Class, monsters, items, lua, log)
	state := bot.NewState()

	start := time.Now()
	turns := 0
	for turns = 0; turns < cfg.Sim.MaxTurns; turns++ {
		if !w.Alive() || w.Won() {
			break
		}
		action := engine.RunTick(w.Snapshot(), state)
		w.Apply(action)
	}

	ch := w.Char
	died := !w.Alive()
	won := w.Won()
	log.Info("run finished",
		zap.Int("turns", turns),
		zap.Int("max_depth", maxDepth),
		zap.Int("level", ch.Level),
		zap.Int("gold", ch.Gold),
		zap.Bool("died", died),
		zap.Bool("won", won),
		zap.String("killed_by", w.KilledBy),
		zap.Duration("elapsed", time.Since(start)),
	)

	if runsRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := runsRepo.Insert(ctx, persist.RunRecord{
			RunID:    uuid.New(),
			Seed:     seed,
			ClassID:  cfg.Bot.Class,
			Preset:   cfg.Bot.Preset,
			MaxDepth: maxDepth,
			Turns:    turns,
			Gold:     ch.Gold,
			Died:     died,
			Won:      won,
			KilledBy: w.KilledBy,
		})
		if err != nil {
			log.Warn("record run", zap.Error(err))
		}
	}
	return nil
}

func dataPath(cfg *config.Config, file string) string {
	if cfg.Sim.DataDir == "" {
		return "" // embedded defaults
	}
	return cfg.Sim.DataDir + "/" + file
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
