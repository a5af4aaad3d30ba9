// Command chartctl supplements the external editor's load/save commands
// (out of scope for this module) with offline chart maintenance:
// migrating old chart files, converting between Phichain/Official/RPE, and
// verifying a chart loads and passes domain validation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/phichain-go/phichain/internal/chart"
	"github.com/phichain-go/phichain/internal/format/official"
	"github.com/phichain-go/phichain/internal/format/rpe"
	"github.com/phichain-go/phichain/internal/migration"
)

const (
	exitOK            = 0
	exitIOOrDecode    = 1
	exitDomainInvalid = 2
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: chartctl <migrate|convert|verify> ...")
		os.Exit(exitIOOrDecode)
	}

	sub, args := os.Args[1], os.Args[2:]

	var code int
	switch sub {
	case "migrate":
		code = runMigrate(args)
	case "convert":
		code = runConvert(args)
	case "verify":
		code = runVerify(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", sub)
		code = exitIOOrDecode
	}
	os.Exit(code)
}

// newLoggedFlagSet builds a subcommand flag set carrying the shared
// --log-level flag and returns it along with a pointer to that flag's value.
func newLoggedFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	return fs, level
}

func loggerFor(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

func runMigrate(args []string) int {
	fs, level := newLoggedFlagSet("migrate")
	fs.Parse(args)
	logger := loggerFor(*level)

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chartctl migrate <in.json> <out.json>")
		return exitIOOrDecode
	}
	in, out := rest[0], rest[1]

	data, err := os.ReadFile(in)
	if err != nil {
		logger.Error("read chart", "path", in, "error", err)
		return exitIOOrDecode
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Error("decode chart JSON", "error", err)
		return exitIOOrDecode
	}

	migrated, err := migration.Migrate(raw)
	if err != nil {
		logger.Error("migrate chart", "error", err)
		return exitIOOrDecode
	}

	encoded, err := json.MarshalIndent(migrated, "", "  ")
	if err != nil {
		logger.Error("re-encode migrated chart", "error", err)
		return exitIOOrDecode
	}
	if err := os.WriteFile(out, encoded, 0644); err != nil {
		logger.Error("write migrated chart", "path", out, "error", err)
		return exitIOOrDecode
	}

	logger.Info("migrated chart", "in", in, "out", out)
	return exitOK
}

func runConvert(args []string) int {
	fs, level := newLoggedFlagSet("convert")
	from := fs.String("from", "phichain", "source format: phichain, official, rpe")
	to := fs.String("to", "phichain", "destination format: phichain, official, rpe")
	fs.Parse(args)
	logger := loggerFor(*level)

	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chartctl convert --from <fmt> --to <fmt> <in> <out>")
		return exitIOOrDecode
	}
	in, out := rest[0], rest[1]

	data, err := os.ReadFile(in)
	if err != nil {
		logger.Error("read chart", "path", in, "error", err)
		return exitIOOrDecode
	}

	primitive, err := decodeAs(*from, data)
	if err != nil {
		logger.Error("decode source chart", "format", *from, "error", err)
		return exitIOOrDecode
	}

	encoded, err := encodeAs(*to, primitive)
	if err != nil {
		logger.Error("encode destination chart", "format", *to, "error", err)
		return exitDomainInvalid
	}

	if err := os.WriteFile(out, encoded, 0644); err != nil {
		logger.Error("write converted chart", "path", out, "error", err)
		return exitIOOrDecode
	}

	logger.Info("converted chart", "from", *from, "to", *to, "in", in, "out", out)
	return exitOK
}

func runVerify(args []string) int {
	fs, level := newLoggedFlagSet("verify")
	fs.Parse(args)
	logger := loggerFor(*level)

	rest := fs.Args()
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: chartctl verify <chart.json>")
		return exitIOOrDecode
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		logger.Error("read chart", "path", rest[0], "error", err)
		return exitIOOrDecode
	}

	var doc chart.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Error("decode chart JSON", "error", err)
		return exitIOOrDecode
	}

	if err := doc.Validate(); err != nil {
		logger.Error("chart failed domain validation", "error", err)
		return exitDomainInvalid
	}

	logger.Info("chart OK", "path", rest[0])
	return exitOK
}

func decodeAs(format string, data []byte) (*chart.Primitive, error) {
	switch format {
	case "phichain":
		var doc chart.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if err := doc.Validate(); err != nil {
			return nil, err
		}
		return chart.ToPrimitive(&doc), nil
	case "official":
		return official.Decode(data)
	case "rpe":
		return rpe.Decode(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func encodeAs(format string, p *chart.Primitive) ([]byte, error) {
	switch format {
	case "phichain":
		doc := chart.ToPhichain(p, chart.CurrentFormat)
		return json.MarshalIndent(doc, "", "  ")
	case "official":
		c, err := official.Encode(p)
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(c, "", "  ")
	case "rpe":
		c, err := rpe.Encode(p)
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(c, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
