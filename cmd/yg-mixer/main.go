// ABOUTME: Entry point for the yourgame mixer
// ABOUTME: Parses CLI flags, starts the mixer with its console and control server, or renders offline
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yourgame/yourgame-go/internal/discovery"
	"github.com/yourgame/yourgame-go/internal/remote"
	"github.com/yourgame/yourgame-go/internal/ui"
	"github.com/yourgame/yourgame-go/internal/version"
	"github.com/yourgame/yourgame-go/pkg/audio/encode"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
	"github.com/yourgame/yourgame-go/pkg/file"
	"github.com/yourgame/yourgame-go/pkg/mixer"
)

var (
	channels   = flag.Int("channels", 0, "Output channels (0 = 2)")
	sampleRate = flag.Int("rate", 0, "Output sample rate in Hz (0 = 48000)")
	sources    = flag.Int("sources", 8, "Number of source slots")
	device     = flag.String("device", output.DefaultDevice, "Output device: "+strings.Join(output.Names(), ", "))
	volume     = flag.Int("volume", 100, "Output volume (0-100)")
	assetDir   = flag.String("assets", "", "Asset directory for a// names (default: probe next to the executable)")
	saveDir    = flag.String("saves", "", "Save directory for s// names (default: savefiles next to the executable)")
	files      = flag.String("files", "", "Comma separated files to store; a trailing * pattern stores every match")
	play       = flag.String("play", "", "Stored file to play at startup")
	loop       = flag.Bool("loop", false, "Loop the -play file")
	port       = flag.Int("port", remote.DefaultPort, "Control server port")
	name       = flag.String("name", "", "Mixer friendly name (default: hostname-yg-mixer)")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noRemote   = flag.Bool("no-remote", false, "Disable the control server")
	noTUI      = flag.Bool("no-tui", false, "Disable the console UI")
	discover   = flag.Bool("discover", false, "List mixers on the local network and exit")
	render     = flag.String("render", "", "Render offline to a .wav or .opus file instead of playing")
	duration   = flag.Duration("duration", 5*time.Second, "Length of an offline render")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	logFile    = flag.String("log-file", "yg-mixer.log", "Log file path")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	// the console owns stdout, so logs only go to the file while it runs
	useTUI := !*noTUI && *render == "" && !*discover
	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("%s", version.String())
	if *debug {
		log.Printf("Debug logging enabled")
	}

	if *discover {
		discoverMixers()
		return
	}

	mixerName := *name
	if mixerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		mixerName = fmt.Sprintf("%s-yg-mixer", hostname)
	}

	loader := file.NewLoader(file.Options{AssetDir: *assetDir, SaveDir: *saveDir})
	log.Printf("Assets: %s, saves: %s", loader.AssetDir(), loader.SaveDir())

	if *render != "" {
		if err := renderOffline(loader); err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		return
	}

	dev, err := output.New(*device)
	if err != nil {
		log.Fatalf("Output error: %v", err)
	}
	vol, _ := dev.(ui.VolumeControl)
	if vol != nil && *volume != 100 {
		vol.SetVolume(*volume)
	}

	engine, err := startMixer(mixerConfig(dev, loader), loader, startup())
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer engine.Shutdown()

	var srv *remote.Server
	if !*noRemote {
		srv = remote.New(remote.Config{
			Port:       *port,
			Name:       mixerName,
			EnableMDNS: !*noMDNS,
			Debug:      *debug,
		}, engine)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("Control server error: %v", err)
			}
		}()
		defer srv.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if useTUI {
		program := ui.Run(engine, vol, mixerName)
		go func() {
			sig := <-sigChan
			log.Printf("Received %v signal, shutting down gracefully...", sig)
			program.Quit()
		}()
		if srv != nil {
			go program.Send(ui.NoticeMsg(fmt.Sprintf("Control server on port %d", *port)))
		}
		if _, err := program.Run(); err != nil {
			log.Printf("Console error: %v", err)
		}
	} else {
		log.Printf("Press Ctrl-C to stop")
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
	}

	stats := engine.Stats()
	log.Printf("Mixed %d frames in %d periods, %d sources retired, %d decode errors",
		stats.Frames, stats.Periods, stats.Retired, stats.DecodeErrors)
}

// expandFiles resolves the -files list, expanding trailing * patterns
// through the loader's directory listing
func expandFiles(loader *file.Loader, list string) ([]string, error) {
	var names []string
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(file.Name(entry), "*") {
			names = append(names, entry)
			continue
		}

		matches, err := loader.Ls(entry)
		if err != nil {
			return nil, err
		}
		dir := file.Dir(entry)
		for _, match := range matches {
			// skip directories, links and other non-regular entries
			if strings.HasSuffix(match, "/") || strings.HasSuffix(match, "@") || strings.HasSuffix(match, "*") {
				continue
			}
			names = append(names, dir+match)
		}
	}
	return names, nil
}

// startupFiles is what the mixer stores and plays before it is handed over
type startupFiles struct {
	files string
	play  string
	loop  bool
}

func startup() startupFiles {
	return startupFiles{files: *files, play: *play, loop: *loop}
}

func mixerConfig(dev output.Device, loader *file.Loader) mixer.Config {
	return mixer.Config{
		Channels:   *channels,
		SampleRate: *sampleRate,
		MaxSources: *sources,
		Device:     dev,
		Files:      loader,
		Debug:      *debug,
	}
}

// startMixer creates the mixer and runs the startup files. On failure the
// mixer is shut down again so the device is released before returning.
func startMixer(cfg mixer.Config, loader *file.Loader, start startupFiles) (*mixer.Engine, error) {
	engine, err := mixer.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := storeAndPlay(engine, loader, start); err != nil {
		if serr := engine.Shutdown(); serr != nil {
			log.Printf("Warning: shutdown after failed startup: %v", serr)
		}
		return nil, err
	}
	return engine, nil
}

// storeAndPlay stores the startup file list and starts the startup play file
func storeAndPlay(engine *mixer.Engine, loader *file.Loader, start startupFiles) error {
	names, err := expandFiles(loader, start.files)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := engine.StoreFile(n); err != nil {
			return err
		}
		log.Printf("Stored %s", n)
	}

	if start.play == "" {
		return nil
	}
	if err := engine.StoreFile(start.play); err != nil && !errors.Is(err, mixer.ErrAlreadyStored) {
		return err
	}
	id, err := engine.Play(start.play, start.loop)
	if err != nil {
		return err
	}
	log.Printf("Playing %s in slot %d (loop=%v)", start.play, id, start.loop)
	return nil
}

// renderOffline mixes -duration of audio on a manually pumped null device
// and encodes it to -render
func renderOffline(loader *file.Loader) error {
	dev := output.NewManualNull()
	engine, err := startMixer(mixerConfig(dev, loader), loader, startup())
	if err != nil {
		return err
	}
	defer engine.Shutdown()

	path := loader.Resolve(*render)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	format := engine.Format()
	writer, err := encode.Create(out, path, format, 16)
	if err != nil {
		return err
	}

	dev.SetVolume(*volume)
	total := int(duration.Seconds() * float64(format.SampleRate))
	const period = 1024
	for written := 0; written < total; written += period {
		frames := min(period, total-written)
		samples, err := dev.Pump(frames)
		if err != nil {
			return err
		}
		if err := writer.Write(samples); err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	log.Printf("Rendered %v (%d frames, %s) to %s", *duration, total, format, path)
	return nil
}

// discoverMixers browses mDNS for a few seconds and prints what it finds
func discoverMixers() {
	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()

	if err := mgr.Browse(); err != nil {
		log.Fatalf("Discovery failed: %v", err)
	}

	seen := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case found := <-mgr.Mixers():
			if seen[found.Addr()] {
				continue
			}
			seen[found.Addr()] = true
			fmt.Printf("%s\t%s%s\t%d sources\n", found.Name, found.Addr(), found.Path, found.Sources)
		case <-timeout:
			if len(seen) == 0 {
				fmt.Println("No mixers found")
			}
			return
		}
	}
}
