// Command cwmd demonstrates wiring a contextmgr.Manager against its real
// adapters: a YAML tuning file, a file- or SQLite-backed Persistence Port, a
// tiktoken-backed Token Estimator, and a Prometheus metrics recorder.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"contextwindow/pkg/config"
	"contextwindow/pkg/contextmgr"
	"contextwindow/pkg/logx"
	"contextwindow/pkg/metrics"
	"contextwindow/pkg/persistence"
	"contextwindow/pkg/tokenizer"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML tuning file (optional)")
		taskID     = flag.String("task", "demo", "task id whose edit log to load/process")
		storeKind  = flag.String("store", "file", "persistence backend: file or sqlite")
		storePath  = flag.String("store-path", ".cwm-data", "file store directory or sqlite database path")
		model      = flag.String("model", "", "model identifier to resolve against the registry")
		historyIn  = flag.String("history", "", "path to a JSON-encoded raw history (reads stdin if empty)")
	)
	flag.Parse()

	log := logx.NewLogger("cwmd")

	cfg := contextmgr.Config{ReservedResponseTokens: 1024, TokenBuffer: 256, TruncationFraction: 0.5}
	registry := config.NewRegistry(nil)

	if *configPath != "" {
		tf, err := config.LoadTuningFile(*configPath)
		if err != nil {
			log.Error("failed to load tuning file: %v", err)
			os.Exit(1)
		}
		cfg = tf.ManagerConfig()
		registry = tf.Registry()
	}

	store, closeStore, err := openStore(*storeKind, *storePath)
	if err != nil {
		log.Error("failed to open persistence store: %v", err)
		os.Exit(1)
	}
	defer closeStore()

	tok := tokenizer.NewTiktokenCounter()
	rec := metrics.NewPrometheusRecorder()

	mgr := contextmgr.NewManager(*taskID, store, tok, cfg, contextmgr.WithLogger(log), contextmgr.WithMetrics(rec))
	if *model != "" {
		if desc := registry.Describe(*model); desc != nil {
			mgr.UpdateModel(desc)
		} else {
			log.Warn("model %q not found in registry, using default budget", *model)
		}
	}

	raw, err := readHistory(*historyIn)
	if err != nil {
		log.Error("failed to read history: %v", err)
		os.Exit(1)
	}

	result := mgr.Process(raw, 0)

	out, err := json.MarshalIndent(struct {
		TokensUsed   int  `json:"tokensUsed"`
		WasTruncated bool `json:"wasTruncated"`
		MessageCount int  `json:"messageCount"`
	}{result.TokensUsed, result.WasTruncated, len(result.PreparedHistory)}, "", "  ")
	if err != nil {
		log.Error("failed to marshal result: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func openStore(kind, path string) (contextmgr.Store, func(), error) {
	switch kind {
	case "sqlite":
		s, err := persistence.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := persistence.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

type rawBlock struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func readHistory(path string) (contextmgr.History, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil || len(data) == 0 {
		return contextmgr.History{}, nil
	}

	var raw []rawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid history JSON: %w", err)
	}

	h := make(contextmgr.History, 0, len(raw))
	for _, r := range raw {
		h = append(h, contextmgr.NewTextMessage(contextmgr.Role(r.Role), r.Text))
	}
	return h, nil
}
