package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gochip8/pkg/cpu"
	"gochip8/pkg/machine"
	"gochip8/pkg/peripherals"
	"gochip8/pkg/utils"
	"gochip8/pkg/video"
)

// Game drives the machine from ebiten's update loop. It is the machine's
// display and input, so every collaborator call stays on the update goroutine.
type Game struct {
	m       *machine.Machine
	rom     []byte
	romName string
	logger  *slog.Logger

	scale   int
	palette video.Palette
	debug   bool

	frame  video.Frame
	canvas *ebiten.Image
	saved  []byte
}

func (g *Game) Present(frame video.Frame) error {
	g.frame = frame
	return nil
}

func (g *Game) Poll(keys *cpu.Keypad) error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsWindowBeingClosed() {
		return cpu.ErrQuit
	}
	for hk, k := range hostKeys {
		if ebiten.IsKeyPressed(hk) {
			keys.Press(k)
		}
	}
	return nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if _, err := g.m.Reload(g.rom); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) {
		g.saveState()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.loadState()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.screenshot()
	}

	if _, err := g.m.Update(time.Now()); err != nil {
		if errors.Is(err, cpu.ErrQuit) {
			return ebiten.Termination
		}
		g.logger.Error("machine stopped", slog.Any("error", err))
		return err
	}
	return nil
}

// saveState keeps a quick-save snapshot for the rest of the session.
func (g *Game) saveState() {
	data, err := g.m.CPU.HibernateToBytes()
	if err != nil {
		g.logger.Error("save state failed", slog.Any("error", err))
		return
	}
	g.saved = data
	g.logger.Info("state saved", slog.Int("bytes", len(data)))
}

func (g *Game) loadState() {
	if g.saved == nil {
		return
	}
	if err := g.m.Restore(g.saved); err != nil {
		g.logger.Error("load state failed", slog.Any("error", err))
	}
}

func (g *Game) screenshot() {
	name := fmt.Sprintf("%s-%s.png", g.romName, time.Now().Format("20060102-150405"))
	if err := g.frame.SaveScreenshot(name, g.palette, g.scale); err != nil {
		g.logger.Error("screenshot failed", slog.Any("error", err))
		return
	}
	g.logger.Info("screenshot saved", slog.String("file", name))
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.canvas == nil {
		g.canvas = ebiten.NewImage(video.Width, video.Height)
	}
	g.canvas.WritePixels(g.frame.RGBA(g.palette))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.canvas, op)

	if g.debug {
		c := g.m.CPU
		stats := g.m.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf("PC %03X I %03X DT %02X ST %02X\nticks %d skipped %d fps %.0f",
			c.PC, c.I, c.Timers.Delay, c.Timers.Sound, stats.Ticks, stats.Recovered, ebiten.ActualFPS()))
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return video.Width * g.scale, video.Height * g.scale
}

func main() {
	hz := flag.Int("hz", 500, "instructions per second")
	scale := flag.Int("scale", 10, "window pixels per framebuffer cell")
	keyWait := flag.String("keywait", "last", "key stored by LD Vx, K when several are held: last or first")
	mute := flag.Bool("mute", false, "disable the beeper")
	debug := flag.Bool("debug", false, "show registers and tick counters")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rom>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to resolve ROM path: %v", err)
	}
	rom, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read ROM: %v", err)
	}

	cfg := machine.DefaultConfig()
	cfg.InstructionHz = *hz
	if cfg.KeyWait, err = machine.ParseKeyWait(*keyWait); err != nil {
		log.Fatalf("Invalid -keywait: %v", err)
	}
	if *scale < 1 {
		log.Fatalf("Invalid -scale %d", *scale)
	}

	game := &Game{
		rom:     rom,
		romName: strings.TrimSuffix(filepath.Base(fullPath), filepath.Ext(fullPath)),
		logger:  logger,
		scale:   *scale,
		palette: video.DefaultPalette,
		debug:   *debug,
	}

	opts := []machine.Option{
		machine.WithConfig(cfg),
		machine.WithLogger(logger),
		machine.WithDisplay(game),
		machine.WithInput(game),
	}
	if !*mute {
		beeper, err := peripherals.NewBeeper()
		if err != nil {
			logger.Warn("audio unavailable", slog.Any("error", err))
		} else {
			defer beeper.Close()
			opts = append(opts, machine.WithBeeper(beeper))
		}
	}

	game.m, err = machine.New(cpu.NewCPU(), opts...)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if _, err := game.m.Reload(rom); err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	ebiten.SetWindowSize(video.Width*(*scale), video.Height*(*scale))
	ebiten.SetWindowTitle("CHIP-8 - " + filepath.Base(fullPath))
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
