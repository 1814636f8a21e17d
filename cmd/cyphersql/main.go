// Command cyphersql reads one openCypher query, compiles it, and
// prints the resulting SQLProgram.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kgraph-dev/cyphersql/internal/config"
	"github.com/kgraph-dev/cyphersql/internal/logging"
	"github.com/kgraph-dev/cyphersql/pkg/parser"
	"github.com/kgraph-dev/cyphersql/pkg/translate"
)

func main() {
	cmd := &cli.Command{
		Name:  "cyphersql",
		Usage: "compile an openCypher query to parameterized SQL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "query text"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "file containing the query (- for stdin)"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML configuration file"},
			&cli.StringFlag{Name: "params", Aliases: []string{"p"}, Usage: "JSON object binding $name parameters"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := logging.New(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	query, err := readQuery(cmd)
	if err != nil {
		return err
	}

	params := map[string]any{}
	if raw := cmd.String("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return fmt.Errorf("parsing --params: %w", err)
		}
	}

	compileID := uuid.NewString()
	start := time.Now()
	logger.Info("compile started", zap.String("compile_id", compileID))

	q, err := parser.Parse(query)
	if err != nil {
		logger.Error("parse failed", zap.String("compile_id", compileID), zap.Error(err))
		return err
	}

	t := translate.New(
		translate.WithSchemaPrefix(cfg.Schema.Prefix),
		translate.WithCaseSensitiveLabels(cfg.Schema.CaseSensitiveLabels),
	)
	program, err := t.Translate(q, params, compileID)
	if err != nil {
		logger.Error("translation failed", zap.String("compile_id", compileID), zap.Error(err))
		return err
	}

	logger.Info("compile finished",
		zap.String("compile_id", compileID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("statements", len(program.SQL)))

	enc := json.NewEncoder(os.Stdout)
	if cfg.Output.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(program)
}

func readQuery(cmd *cli.Command) (string, error) {
	if q := cmd.String("query"); q != "" {
		return q, nil
	}
	path := cmd.String("file")
	if path == "" {
		return "", fmt.Errorf("one of --query or --file is required")
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
