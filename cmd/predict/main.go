package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"medai-backend/cmd"
	"medai-backend/internal/catalog"
	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"
	"medai-backend/internal/presenter"
	"medai-backend/internal/utils"

	"github.com/caarlos0/env/v11"
	"github.com/schollz/progressbar/v3"
)

type PredictConfig struct {
	DatabaseURL      string        `env:"DATABASE_URL" envDefault:"file::memory:"`
	InferenceURL     string        `env:"INFERENCE_URL,notEmpty,required"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"30s"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	StorageDir        string `env:"STORAGE_DIR"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION"`
	ReportBucket      string `env:"REPORT_BUCKET" envDefault:"reports"`
}

type reportEntry struct {
	File           string             `json:"file"`
	Model          string             `json:"model"`
	Prediction     string             `json:"prediction,omitempty"`
	Confidence     float64            `json:"confidence,omitempty"`
	Probabilities  map[string]float64 `json:"probabilities,omitempty"`
	Explanation    string             `json:"explanation,omitempty"`
	ExplanationRef string             `json:"explanation_ref,omitempty"`
	ProcessingTime string             `json:"processing_time,omitempty"`
	Error          string             `json:"error,omitempty"`
}

type job struct {
	path  string
	asset *intake.Asset
}

func main() {
	modelId := flag.String("model", "", "id of the model to classify with")
	explain := flag.Bool("explain", false, "request a Grad-CAM explanation for each classified image")
	workers := flag.Int("workers", 4, "number of concurrent requests")
	reportKey := flag.String("report", "", "object key to store a JSON report under")

	cmd.LoadEnvFile()

	var cfg PredictConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatalf("usage: predict [-env file] -model <id> [-explain] [-report key] <image>...")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := cmd.CreateDatabase(cfg.DatabaseURL)
	models, err := catalog.Load(ctx, db)
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}
	if !models.Contains(*modelId) {
		log.Fatalf("unknown model %q, available models: %v", *modelId, modelIds(models))
	}

	in := intake.New(intake.Config{MaxBytes: cfg.MaxUploadBytes, DisablePreview: true})

	var entries []reportEntry
	var jobs []job
	var totalBytes int64
	for _, path := range paths {
		asset, err := load(in, path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			entries = append(entries, reportEntry{File: path, Model: *modelId, Error: err.Error()})
			continue
		}
		jobs = append(jobs, job{path: path, asset: asset})
		totalBytes += asset.Size
	}
	if *explain {
		totalBytes *= 2
	}

	bar := progressbar.DefaultBytes(totalBytes, "uploading")

	client, err := prediction.NewClient(prediction.Config{
		Endpoint: cfg.InferenceURL,
		Timeout:  cfg.InferenceTimeout,
		UploadObserver: func(filename string, size int64, r io.Reader) io.Reader {
			return io.TeeReader(r, bar)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create prediction client: %v", err)
	}

	queue := make(chan job, len(jobs))
	for _, j := range jobs {
		queue <- j
	}
	close(queue)

	completed := make(chan utils.CompletedTask[job, reportEntry], len(jobs))
	utils.RunInPool(func(j job) (reportEntry, error) {
		return predict(ctx, client, j, *modelId, *explain)
	}, queue, completed, *workers)

	for task := range completed {
		if task.Error != nil {
			entries = append(entries, reportEntry{File: task.Input.path, Model: *modelId, Error: task.Error.Error()})
			continue
		}
		entries = append(entries, task.Result)
	}
	if err := bar.Finish(); err != nil {
		log.Printf("error finishing progress bar: %v", err)
	}
	fmt.Println()

	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })
	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
			fmt.Printf("%s\tFAILED\t%s\n", e.File, e.Error)
			continue
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", e.File, e.Prediction, presenter.Percent(e.Confidence), e.Explanation)
	}

	if *reportKey != "" {
		if err := writeReport(ctx, cfg, *reportKey, entries); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("report written to %s/%s", cfg.ReportBucket, *reportKey)
	}

	if failed > 0 {
		log.Printf("%d of %d files failed", failed, len(entries))
		os.Exit(1)
	}
}

func modelIds(models *catalog.Catalog) []string {
	var ids []string
	for _, m := range models.List() {
		ids = append(ids, m.Id)
	}
	return ids
}

func load(in *intake.Intake, path string) (*intake.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	asset, err := in.Accept([]intake.File{{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func predict(ctx context.Context, client *prediction.Client, j job, modelId string, explain bool) (reportEntry, error) {
	result, err := client.Classify(ctx, j.asset, modelId)
	if err != nil {
		return reportEntry{}, err
	}

	entry := reportEntry{
		File:           j.path,
		Model:          result.ModelId,
		Prediction:     presenter.DisplayName(result.Label),
		Confidence:     result.Confidence(),
		Probabilities:  make(map[string]float64, len(result.Confidences)),
		ProcessingTime: result.ProcessingTime,
	}
	for label, value := range result.Confidences {
		entry.Probabilities[label.String()] = value
	}

	if !explain {
		return entry, nil
	}

	explanation, err := client.Explain(ctx, j.asset, modelId)
	if err != nil {
		entry.Error = fmt.Sprintf("explanation failed: %v", err)
		return entry, nil
	}
	entry.Explanation = explanation.State.String()
	if explanation.State == prediction.ExplanationImage {
		entry.ExplanationRef = explanation.Image
	}
	return entry, nil
}

func writeReport(ctx context.Context, cfg PredictConfig, key string, entries []reportEntry) error {
	provider, err := cmd.CreateStorageProvider(cmd.StorageConfig{
		Dir:               cfg.StorageDir,
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no storage configured, set STORAGE_DIR or AWS_REGION")
	}

	if err := provider.CreateBucket(ctx, cfg.ReportBucket); err != nil {
		return fmt.Errorf("error creating report bucket: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{
		"created_at": time.Now().UTC(),
		"results":    entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}

	return provider.PutObject(ctx, cfg.ReportBucket, key, bytes.NewReader(data))
}
