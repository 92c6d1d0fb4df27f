// Command bufrenc encodes an animal-tag observation dataset into a single
// BUFR Edition 4 message conforming to sequence template 3-15-023.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axiom-data-science/bufrgo/animaltag"
	"github.com/axiom-data-science/bufrgo/dataset"
	"github.com/axiom-data-science/bufrgo/message"
	"github.com/axiom-data-science/bufrgo/section"
	"github.com/axiom-data-science/bufrgo/tables"
	"gopkg.in/yaml.v3"
)

// descriptorFile is the optional YAML sidecar supplying tag metadata that
// has no natural home in the observation table itself.
type descriptorFile struct {
	UUID                 string `yaml:"uuid"`
	PTT                  string `yaml:"ptt"`
	WMOID                int    `yaml:"wmo_id"`
	WIGOSIssuer          int    `yaml:"wigos_issuer"`
	WIGOSLocalIdentifier string `yaml:"wigos_local_identifier"`
}

func main() {
	var (
		outPath    = flag.String("o", "", "output file for the encoded message (default: stdout)")
		uuid       = flag.String("u", "", "tag UUID, overrides the descriptor file")
		ptt        = flag.String("p", "", "platform transmitter terminal ID, overrides the descriptor file")
		descPath   = flag.String("d", "", "YAML descriptor file with tag metadata")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
		subsetFlag = flag.Uint("subsets", 1, "section 3 subset count")
	)
	flag.StringVar(outPath, "output", "", "same as -o")
	flag.StringVar(uuid, "uuid", "", "same as -u")
	flag.StringVar(ptt, "ptt", "", "same as -p")
	flag.StringVar(descPath, "descriptor", "", "same as -d")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <observations.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := newLogger(*logLevel)

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	datasetPath := flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Warn("received shutdown signal, finishing current step")
	}()

	meta, err := loadMetadata(*descPath, *uuid, *ptt)
	if err != nil {
		logger.Error("loading descriptor metadata", slog.Any("err", err))
		os.Exit(1)
	}

	obs, err := dataset.LoadFile(datasetPath, openFile)
	if err != nil {
		logger.Error("loading observation dataset", slog.String("path", datasetPath), slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("loaded observations", slog.Int("count", len(obs)), slog.String("path", datasetPath))

	store := tables.New()
	fields, err := animaltag.Project(store, obs, meta)
	if err != nil {
		logger.Error("projecting observations onto template", slog.Any("err", err))
		os.Exit(1)
	}

	s1, err := section.NewSection1(
		section.WithOriginatingCentre(uint16(meta.WIGOSIssuer), 0),
		section.WithDataCategory(31, 0, 0), // oceanographic/marine-animal profile data
		section.WithTableVersions(31, 0),
		section.WithTimestamp(time.Now()),
	)
	if err != nil {
		logger.Error("building section 1", slog.Any("err", err))
		os.Exit(1)
	}

	msg, err := message.Encode(s1, animaltag.TopSequence, fields, uint16(*subsetFlag))
	if err != nil {
		logger.Error("encoding message", slog.Any("err", err))
		os.Exit(1)
	}

	if err := writeOutput(*outPath, msg); err != nil {
		logger.Error("writing output", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("wrote message", slog.Int("bytes", len(msg)), slog.String("output", outputLabel(*outPath)))
}

func loadMetadata(descPath, uuidOverride, pttOverride string) (animaltag.Metadata, error) {
	var meta animaltag.Metadata

	if descPath != "" {
		f, err := os.Open(descPath)
		if err != nil {
			return meta, fmt.Errorf("opening descriptor file: %w", err)
		}
		defer f.Close()

		var df descriptorFile
		if err := yaml.NewDecoder(f).Decode(&df); err != nil {
			return meta, fmt.Errorf("parsing descriptor file: %w", err)
		}

		meta = animaltag.Metadata{
			WMOID:                df.WMOID,
			UUID:                 df.UUID,
			PTT:                  df.PTT,
			WIGOSIssuer:          df.WIGOSIssuer,
			WIGOSLocalIdentifier: df.WIGOSLocalIdentifier,
		}
	}

	if uuidOverride != "" {
		meta.UUID = uuidOverride
	}
	if pttOverride != "" {
		meta.PTT = pttOverride
	}

	return meta, nil
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func writeOutput(path string, msg []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(msg)
		return err
	}

	return os.WriteFile(path, msg, 0o644)
}

func outputLabel(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
