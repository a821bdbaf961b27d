package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-stepseq/config"
	"go-stepseq/debug"
	"go-stepseq/midi"
	"go-stepseq/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer midi.CloseDriver()

	switch os.Args[1] {
	case "list":
		listPorts()
	case "voices":
		playVoices(arg(2))
	case "note":
		playNote(arg(2), arg(3))
	case "poll":
		pollPorts()
	default:
		usage()
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                - List MIDI output ports")
	fmt.Println("  voices <port>       - Play every configured track once, in order")
	fmt.Println("  note <port> <name>  - Play one note (e.g. c4, d#3)")
	fmt.Println("  poll                - Poll for output port changes")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.OutPortNames(3 * time.Second)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func openOutput(port string, cfg *config.Config) *midi.Output {
	if port == "" {
		port = cfg.Output.Port
	}
	if port == "" {
		fmt.Println("No port given and none configured")
		os.Exit(1)
	}
	send, err := midi.OpenSender(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Using output: %s (channel %d)\n", port, cfg.Output.Channel)
	return midi.NewOutput(send, midi.OutputConfig{
		Channel:  cfg.Output.Channel,
		Velocity: cfg.Output.Velocity,
		Logger:   debug.Logger(),
	})
}

func playVoices(port string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	out := openOutput(port, cfg)
	defer out.Close()

	resolver, err := sequencer.NewResolver(cfg.Tracks)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	// First step of each chord range for melodic tracks, step 0 otherwise
	for track, v := range resolver.Voices() {
		steps := []int{0}
		if v.Role == sequencer.RoleMelodic {
			steps = steps[:0]
			for _, c := range v.Chords {
				steps = append(steps, c.From)
			}
		}
		for _, step := range steps {
			in, err := resolver.Resolve(track, step)
			if err != nil {
				fmt.Printf("  %s: %v\n", v.Name, err)
				continue
			}
			fmt.Printf("  %-10s step %2d  %s\n", v.Name, step, in)
			if err := out.Trigger(in); err != nil {
				fmt.Printf("  %s: %v\n", v.Name, err)
			}
			time.Sleep(600 * time.Millisecond)
		}
	}
	fmt.Println("Done!")
}

func playNote(port, name string) {
	if _, err := midi.ParseNote(name); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	out := openOutput(port, cfg)
	defer out.Close()

	out.Trigger(sequencer.Instruction{
		Kind:     sequencer.Chord,
		Track:    -1,
		Step:     -1,
		Pitches:  []string{name},
		Duration: 0.5,
	})
	time.Sleep(700 * time.Millisecond)
	fmt.Println("Done!")
}

func pollPorts() {
	fmt.Println("Polling for port changes every 2 seconds...")
	fmt.Println("Connect/disconnect a synth to test. Ctrl+C to exit.")

	last := ""
	for {
		names, err := midi.OutPortNames(3 * time.Second)
		if err != nil {
			fmt.Printf("\n[%s] %v\n", time.Now().Format("15:04:05"), err)
		} else if current := strings.Join(names, ","); current != last {
			fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Outputs: %v\n", names)
			last = current
		}
		time.Sleep(2 * time.Second)
	}
}
