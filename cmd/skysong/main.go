package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lkorpela/skysong"
	"github.com/lkorpela/skysong/compose"
	"github.com/lkorpela/skysong/meteo"
	"github.com/lkorpela/skysong/midifile"
	"github.com/lkorpela/skysong/version"
)

// config collects every recognized option. Values are clamped into their
// legal ranges, never rejected. A YAML config file can provide any of
// them; explicitly given flags win over the file.
type config struct {
	Latitude      float64 `yaml:"latitude"`
	Longitude     float64 `yaml:"longitude"`
	Output        string  `yaml:"output"`
	BPM           int     `yaml:"bpm"`
	Hours         int     `yaml:"hours"`
	BarsPerHour   int     `yaml:"bars"`
	Melody        bool    `yaml:"melody"`
	MelodyChannel int     `yaml:"channel"`
	MelodyProgram int     `yaml:"program"`
	Seed          int64   `yaml:"seed"`
}

func defaultConfig() config {
	return config{
		Latitude:      60.17,
		Longitude:     24.94,
		Output:        "skysong.mid",
		BPM:           96,
		Hours:         24,
		BarsPerHour:   2,
		Melody:        true,
		MelodyChannel: 0,
		MelodyProgram: 0,
	}
}

// stderrTrace reports pipeline checkpoints on standard error; the
// libraries themselves never print.
type stderrTrace struct{ quiet bool }

func (t stderrTrace) BoundsComputed(b skysong.SeriesBounds) {
	if t.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "bounds: temp %.1f..%.1f C, humidity %.0f..%.0f %%, precip %.1f..%.1f mm, wind %.1f..%.1f km/h\n",
		b.Temperature.Min, b.Temperature.Max, b.Humidity.Min, b.Humidity.Max,
		b.Precipitation.Min, b.Precipitation.Max, b.WindSpeed.Min, b.WindSpeed.Max)
}

func (t stderrTrace) RecordMapped(index int, obs skysong.Observation) {
	if t.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "hour %02d: %.1f C, %s\n", obs.Hour(), obs.Temperature, skysong.ScaleForTemperature(obs.Temperature))
}

func (t stderrTrace) SongAssembled(song *skysong.Song) {
	if t.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "assembled %v tracks, %v ticks, %.1f s at %v BPM\n",
		len(song.Tracks), song.LengthTicks(), song.DurationSeconds(), song.BPM)
}

func main() {
	defaults := defaultConfig()
	lat := flag.Float64("lat", defaults.Latitude, "Location latitude.")
	lon := flag.Float64("lon", defaults.Longitude, "Location longitude.")
	out := flag.String("o", defaults.Output, "Output .mid file path.")
	bpm := flag.Int("bpm", defaults.BPM, "Tempo in beats per minute; clamped to 40-300.")
	hours := flag.Int("hours", defaults.Hours, "Forecast hours to fetch; clamped to 1-168.")
	bars := flag.Int("bars", defaults.BarsPerHour, "Bars generated per hour; clamped to 1-16.")
	melody := flag.Bool("melody", defaults.Melody, "Generate the melodic track in addition to drums.")
	channel := flag.Int("channel", defaults.MelodyChannel, "MIDI channel of the melodic track; clamped to 0-15.")
	program := flag.Int("program", defaults.MelodyProgram, "General MIDI program of the melodic track; clamped to 0-127.")
	seed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock.")
	configPath := flag.String("c", "", "Read options from a YAML config file; explicitly given flags win.")
	songOut := flag.Bool("y", false, "Also write the assembled song as a .yml file next to the output.")
	quiet := flag.Bool("q", false, "Suppress progress output.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	cfg := defaults
	if *configPath != "" {
		contents, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not read config file %v: %v\n", *configPath, err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "could not parse config file %v: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Latitude = *lat
		case "lon":
			cfg.Longitude = *lon
		case "o":
			cfg.Output = *out
		case "bpm":
			cfg.BPM = *bpm
		case "hours":
			cfg.Hours = *hours
		case "bars":
			cfg.BarsPerHour = *bars
		case "melody":
			cfg.Melody = *melody
		case "channel":
			cfg.MelodyChannel = *channel
		case "program":
			cfg.MelodyProgram = *program
		case "seed":
			cfg.Seed = *seed
		}
	})
	if err := run(cfg, *songOut, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, songOut, quiet bool) error {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	client := meteo.NewClient()
	series, err := client.Forecast(context.Background(), cfg.Latitude, cfg.Longitude, cfg.Hours)
	if err != nil {
		return fmt.Errorf("could not fetch observations: %v", err)
	}
	song, err := compose.BuildSong(series, compose.Config{
		BPM:           cfg.BPM,
		BarsPerHour:   cfg.BarsPerHour,
		Melody:        cfg.Melody,
		MelodyChannel: cfg.MelodyChannel,
		MelodyProgram: cfg.MelodyProgram,
	}, rng, stderrTrace{quiet: quiet})
	if err != nil {
		return fmt.Errorf("could not compose song: %v", err)
	}
	if err := midifile.WriteFile(cfg.Output, song); err != nil {
		return fmt.Errorf("could not write %v: %v", cfg.Output, err)
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "wrote %v\n", cfg.Output)
	}
	if songOut {
		contents, err := yaml.Marshal(song)
		if err != nil {
			return fmt.Errorf("could not marshal song: %v", err)
		}
		path := strings.TrimSuffix(cfg.Output, filepath.Ext(cfg.Output)) + ".yml"
		if err := os.WriteFile(path, contents, 0644); err != nil {
			return fmt.Errorf("could not write %v: %v", path, err)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "wrote %v\n", path)
		}
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Skysong command line utility for turning an hourly weather forecast into a .mid file.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
