package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-stepseq/config"
	"go-stepseq/debug"
	"go-stepseq/midi"
	"go-stepseq/sequencer"
	"go-stepseq/theme"
	"go-stepseq/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-stepseq/config.yaml)")
	port := flag.String("output", "", "MIDI output port, overrides the config")
	list := flag.Bool("list", false, "list MIDI output ports and exit")
	logFile := flag.String("log", "", "write a debug log to this file")
	logLevel := flag.String("level", "", "log level: debug, info, warn, error")
	flag.Parse()

	if err := run(*configPath, *port, *list, *logFile, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, port string, list bool, logFile, logLevel string) error {
	defer midi.CloseDriver()

	if list {
		names, err := midi.OutPortNames(3 * time.Second)
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Printf("  %d: %s\n", i, name)
		}
		return nil
	}

	// Load config
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Output.Port = port
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if cfg.Log.File != "" {
		if err := debug.Enable(cfg.Log.File, cfg.Log.Level); err != nil {
			return err
		}
		defer debug.Disable()
	}
	logger := debug.Logger()

	// Load theme
	palette := theme.Plasma()
	if cfg.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.Palette); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	// Output: a MIDI port when one is configured, the log otherwise
	var out sequencer.Output = midi.NewLogOutput(logger)
	if cfg.Output.Port != "" {
		send, err := midi.OpenSender(cfg.Output.Port)
		if err != nil {
			return err
		}
		mo := midi.NewOutput(send, midi.OutputConfig{
			Channel:  cfg.Output.Channel,
			Velocity: cfg.Output.Velocity,
			Logger:   logger,
		})
		defer mo.Close()
		out = mo
	}

	engine, err := sequencer.New(sequencer.Options{
		Voices: cfg.Tracks,
		Tempo:  cfg.Tempo,
		Swing:  cfg.Swing,
		Output: out,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	logger.Info("ready", "tracks", len(cfg.Tracks), "tempo", cfg.Tempo, "output", cfg.Output.Port)

	m := tui.NewModel(engine, th, cfg.Output.Port)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
