package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/fightelo/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FightsFiles, convey.ShouldResemble, []string{"fights.json"})
				convey.So(cfg.LoaderWorkers, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FIGHTELO_ADDR", ":8080")
			_ = os.Setenv("FIGHTELO_LOG_FORMAT", "json")
			_ = os.Setenv("FIGHTELO_FIGHTS_FILES", "ufc.json, bellator.json")
			_ = os.Setenv("FIGHTELO_LOADER_WORKERS", "3")
			_ = os.Setenv("FIGHTELO_DEDUPE_FIGHTS", "true")
			_ = os.Setenv("FIGHTELO_DRAW_UPDATES_PEAK", "true")
			_ = os.Setenv("FIGHTELO_EXPORT_CSV", "/tmp/fighter_elo.csv")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.FightsFiles, convey.ShouldResemble, []string{"ufc.json", "bellator.json"})
				convey.So(cfg.LoaderWorkers, convey.ShouldEqual, 3)
				convey.So(cfg.DedupeFights, convey.ShouldBeTrue)
				convey.So(cfg.DrawUpdatesPeak, convey.ShouldBeTrue)
				convey.So(cfg.ExportCSV, convey.ShouldEqual, "/tmp/fighter_elo.csv")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
fights_files:
  - one.json
  - two.json
  - three.json
loader_workers: 6
watch_fights: true
max_leaderboard_limit: 250
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FIGHTELO_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.FightsFiles, convey.ShouldResemble, []string{"one.json", "two.json", "three.json"})
				convey.So(cfg.LoaderWorkers, convey.ShouldEqual, 6)
				convey.So(cfg.WatchFights, convey.ShouldBeTrue)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 250)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
fights_files: [one.json, two.json]
loader_workers: 6
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FIGHTELO_CONFIG", tmpFile)
			_ = os.Setenv("FIGHTELO_ADDR", ":8080")              // This should override the file
			_ = os.Setenv("FIGHTELO_FIGHTS_FILES", "only.json") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")                            // Overridden by env
				convey.So(cfg.FightsFiles, convey.ShouldResemble, []string{"only.json"}) // Overridden by env
				convey.So(cfg.LoaderWorkers, convey.ShouldEqual, 6)                         // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FIGHTELO_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a dotenv file", func() {
			path := createTempConfigFile("FIGHTELO_ADDR=:7070\nFIGHTELO_DEDUPE_FIGHTS=true\n")
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("FIGHTELO_ENV_FILE", path)
			_ = os.Setenv("FIGHTELO_DEDUPE_FIGHTS", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its variables apply below the process environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DedupeFights, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the dotenv file does not exist", func() {
			_ = os.Setenv("FIGHTELO_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("FIGHTELO_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FIGHTELO_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FIGHTELO_LOADER_WORKERS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with zero loader workers", func() {
			_ = os.Setenv("FIGHTELO_LOADER_WORKERS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
dedupe_fights: true
# Another comment
dedupe_size: 600000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FIGHTELO_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DedupeFights, convey.ShouldBeTrue)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 600000)
			})
		})

		convey.Convey("When the list variable holds only separators", func() {
			_ = os.Setenv("FIGHTELO_FIGHTS_FILES", " , ,")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects the empty list", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with special characters in addr", func() {
			_ = os.Setenv("FIGHTELO_ADDR", "[::1]:8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should keep the address verbatim", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "[::1]:8080")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"FIGHTELO_CONFIG",
		"FIGHTELO_ENV_FILE",
		"FIGHTELO_ADDR",
		"FIGHTELO_LOG_LEVEL",
		"FIGHTELO_LOG_FORMAT",
		"FIGHTELO_FIGHTS_FILES",
		"FIGHTELO_LOADER_WORKERS",
		"FIGHTELO_EXPORT_CSV",
		"FIGHTELO_DEDUPE_FIGHTS",
		"FIGHTELO_DEDUPE_SIZE",
		"FIGHTELO_DRAW_UPDATES_PEAK",
		"FIGHTELO_WATCH_FIGHTS",
		"FIGHTELO_MAX_LEADERBOARD_LIMIT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "fightelo-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
