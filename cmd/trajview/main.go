package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/trajview/internal/config"
	"github.com/san-kum/trajview/internal/diag"
	"github.com/san-kum/trajview/internal/host"
	"github.com/san-kum/trajview/internal/loader"
	"github.com/san-kum/trajview/internal/mesh"
	"github.com/san-kum/trajview/internal/probe"
	"github.com/san-kum/trajview/internal/render"
	"github.com/san-kum/trajview/internal/scene"
)

var (
	configFile string
	addr       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajview",
		Short: "trajectory viewer for recorded and live simulations",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	viewCmd := &cobra.Command{
		Use:   "view [source]",
		Short: "open a trajectory in the viewer window",
		Args:  cobra.ExactArgs(1),
		RunE:  runView,
	}

	probeCmd := &cobra.Command{
		Use:   "probe [source]",
		Short: "load a trajectory and watch metadata, progress and diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	}

	infoCmd := &cobra.Command{
		Use:   "info [source]",
		Short: "print trajectory metadata and field inventory",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	statsCmd := &cobra.Command{
		Use:   "stats [source]",
		Short: "plot per-frame bond counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runStats,
	}

	serveCmd := &cobra.Command{
		Use:   "serve [directory]",
		Short: "replay a recorded trajectory directory over websocket",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "localhost:8765", "listen address")

	rootCmd.AddCommand(viewCmd, probeCmd, infoCmd, statsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openHost picks the transport from the source string: ws:// and
// wss:// dial a live simulation host, anything else is read as a
// recorded trajectory directory.
func openHost(ctx context.Context, source string, cfg *config.Config) (host.Host, func(), error) {
	var h host.Host
	closeFn := func() {}

	if strings.HasPrefix(source, "ws://") || strings.HasPrefix(source, "wss://") {
		client, err := host.DialWS(ctx, source)
		if err != nil {
			return nil, nil, fmt.Errorf("dial %s: %w", source, err)
		}
		h = client
		closeFn = func() { client.Close() }
	} else {
		h = host.OpenDir(source)
	}

	if cfg.RequestTimeout > 0 {
		h = host.WithTimeout(h, time.Duration(cfg.RequestTimeout*float64(time.Second)))
	}
	return h, closeFn, nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, closeHost, err := openHost(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	defer closeHost()

	log := &diag.Log{}
	session := loader.New(h, log)
	go func() {
		if err := session.Run(ctx); err != nil {
			log.Report(err, diag.MissingArrayPayload)
		}
	}()

	if err := render.Run(cfg, session, log); err != nil {
		return err
	}

	for _, e := range log.Entries() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", e.Kind, e.Msg)
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, closeHost, err := openHost(ctx, args[0], cfg)
	if err != nil {
		return err
	}
	defer closeHost()

	log := &diag.Log{}
	session := loader.New(h, log)
	return probe.Run(session, log, args[0], func() error {
		return session.Run(ctx)
	})
}

// loadAll runs the full load sequence synchronously, for the
// batch-style commands.
func loadAll(source string, cfg *config.Config) (*loader.Session, *diag.Log, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, closeHost, err := openHost(ctx, source, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeHost()

	log := &diag.Log{}
	session := loader.New(h, log)
	if err := session.Run(ctx); err != nil {
		return nil, nil, err
	}
	return session, log, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	session, log, err := loadAll(args[0], cfg)
	if err != nil {
		return err
	}

	table := session.Table()
	meta := table.Meta
	if meta == nil {
		return fmt.Errorf("no usable metadata in %s", args[0])
	}

	box := make([]string, len(meta.BoxSize))
	for i, v := range meta.BoxSize {
		box[i] = fmt.Sprintf("%g", v)
	}
	fmt.Printf("source: %s\n", args[0])
	fmt.Printf("dimension: %d\n", meta.Dimension)
	fmt.Printf("frames: %d\n", meta.FrameCount)
	fmt.Printf("chunk size: %d\n", meta.ChunkSize)
	fmt.Printf("box: %s\n\n", strings.Join(box, " x "))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GEOMETRY\tSHAPE\tCOUNT\tFIELD\tCLASS\tCOMPONENTS\tVALUES")
	for _, g := range table.Geometries {
		names := make([]string, 0, len(g.Fields))
		for name := range g.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			f := g.Fields[name]
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%d\n",
				g.Name, g.Shape, g.Count, name, f.Class, f.Components, len(f.Data))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := log.Len(); n > 0 {
		fmt.Printf("\n%d diagnostic(s):\n", n)
		for _, e := range log.Entries() {
			fmt.Printf("  %s: %s\n", e.Kind, e.Msg)
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	session, _, err := loadAll(args[0], cfg)
	if err != nil {
		return err
	}

	table := session.Table()
	meta := table.Meta
	if meta == nil {
		return fmt.Errorf("no usable metadata in %s", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GEOMETRY\tFIELD\tMIN\tMAX")
	for _, g := range table.Geometries {
		names := make([]string, 0, len(g.Fields))
		for name := range g.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lo, hi := fieldRange(g.Fields[name].Data)
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\n", g.Name, name, lo, hi)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	plotted := false
	for _, g := range table.Geometries {
		if g.Shape != scene.ShapeBond {
			continue
		}
		counts, err := bondCounts(table, g, meta, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", g.Name, err)
			continue
		}
		graph := asciigraph.Plot(counts,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s: bonds drawn per frame", g.Name)),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted = true
	}
	if !plotted {
		fmt.Println("no bond geometries")
	}
	return nil
}

func fieldRange(data []float32) (lo, hi float32) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// bondCounts rebuilds the bond mesh for every frame and reports how
// many bonds survive the half-box wrap filter, the same count the
// viewer would draw.
func bondCounts(table *scene.Table, g *scene.Geometry, meta *scene.Metadata, cfg *config.Config) ([]float64, error) {
	ref, err := table.Geometry(g.RefGeometry)
	if err != nil {
		return nil, err
	}
	posField, ok := ref.Field("position")
	if !ok {
		return nil, fmt.Errorf("reference geometry %s has no position", ref.Name)
	}
	neighbors, err := g.Neighbors()
	if err != nil {
		return nil, err
	}

	segments := cfg.Bond.Segments
	if segments <= 0 {
		segments = mesh.DefaultBondSegments
	}
	builder := mesh.NewBondBuilder(g.Count, g.MaxNeighbors, segments)
	vertsPerBond := segments * 6

	counts := make([]float64, meta.FrameCount)
	for frame := 0; frame < meta.FrameCount; frame++ {
		pos := posField.FrameSlice(frame, ref.Count)
		_, _, n := builder.Build(pos, meta.Dimension, neighbors,
			g.Count, g.MaxNeighbors, cfg.Bond.Diameter, meta.BoxSize)
		counts[frame] = float64(n / vertsPerBond)
	}
	return counts, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	srv := host.NewServer(host.OpenDir(args[0]))
	fmt.Printf("serving %s on ws://%s\n", args[0], addr)
	return http.ListenAndServe(addr, srv)
}
