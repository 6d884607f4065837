package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"medai-backend/internal/intake"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 30 * time.Second

	// NotApplicableMarker is sent in place of a heatmap when the backend
	// declines to explain a normal study.
	NotApplicableMarker = "normal"
)

// UploadObserver may wrap the image reader of an outgoing request, for
// example to report upload progress.
type UploadObserver func(filename string, size int64, r io.Reader) io.Reader

type Config struct {
	Endpoint       string
	Timeout        time.Duration
	HTTPClient     *http.Client
	UploadObserver UploadObserver
}

type Client struct {
	client   *resty.Client
	endpoint string
	timeout  time.Duration
	observer UploadObserver
}

func NewClient(cfg Config) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid inference endpoint %q: %w", cfg.Endpoint, err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid inference endpoint %q: scheme must be http or https", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetHeader("Accept", "application/json")

	return &Client{
		client:   rc,
		endpoint: endpoint.String(),
		timeout:  timeout,
		observer: cfg.UploadObserver,
	}, nil
}

type predictResponse struct {
	Prediction       string             `json:"prediction"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
	Gradcam          *string            `json:"gradcam"`
	ProcessingTime   string             `json:"processing_time"`
	ModelUsed        string             `json:"model_used"`
}

func (c *Client) Classify(ctx context.Context, asset *intake.Asset, modelId string) (*Classification, error) {
	res, err := c.predict(ctx, asset, modelId, false)
	if err != nil {
		return nil, err
	}

	label, err := ParseLabel(res.Prediction)
	if err != nil {
		return nil, malformed("invalid prediction: %w", err)
	}

	raw := make(map[Label]float64, len(res.AllProbabilities))
	for key, value := range res.AllProbabilities {
		l, err := ParseLabel(key)
		if err != nil {
			return nil, malformed("invalid probability key: %w", err)
		}
		if _, dup := raw[l]; dup {
			return nil, malformed("duplicate probability for label %v", l)
		}
		raw[l] = value
	}
	if _, ok := raw[label]; !ok {
		return nil, malformed("predicted label %v has no probability", label)
	}

	confidences, err := Normalize(raw)
	if err != nil {
		return nil, malformed("invalid probabilities: %w", err)
	}

	if res.ModelUsed != "" && res.ModelUsed != modelId {
		slog.Warn("inference backend reported a different model", "requested", modelId, "model_used", res.ModelUsed)
	}

	return &Classification{
		Label:          label,
		Confidences:    confidences,
		ModelId:        modelId,
		ProcessingTime: res.ProcessingTime,
	}, nil
}

func (c *Client) Explain(ctx context.Context, asset *intake.Asset, modelId string) (Explanation, error) {
	res, err := c.predict(ctx, asset, modelId, true)
	if err != nil {
		return Explanation{}, err
	}

	if res.Gradcam == nil || strings.TrimSpace(*res.Gradcam) == "" {
		return Explanation{}, malformed("response has no explanation")
	}

	image := strings.TrimSpace(*res.Gradcam)
	if strings.EqualFold(image, NotApplicableMarker) {
		return Explanation{State: ExplanationNotApplicable}, nil
	}
	if !isImageReference(image) {
		return Explanation{}, malformed("explanation is neither an image data URI nor a URL")
	}

	return Explanation{State: ExplanationImage, Image: image}, nil
}

func isImageReference(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *Client) predict(ctx context.Context, asset *intake.Asset, modelId string, explain bool) (*predictResponse, error) {
	if asset == nil {
		return nil, fmt.Errorf("no asset to send")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader = bytes.NewReader(asset.Data)
	if c.observer != nil {
		body = c.observer(asset.Filename, int64(len(asset.Data)), body)
	}

	start := time.Now()
	res, err := c.client.R().
		SetContext(ctx).
		SetMultipartField("image", asset.Filename, asset.MediaType, body).
		SetMultipartFormData(map[string]string{
			"model":            modelId,
			"generate_gradcam": strconv.FormatBool(explain),
		}).
		Post(c.endpoint)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			slog.Error("prediction request timed out", "model", modelId, "timeout", c.timeout)
			return nil, &TransportError{Kind: FailureTimeout, Err: err}
		}
		slog.Error("unable to reach inference backend", "model", modelId, "error", err)
		return nil, &TransportError{Kind: FailureNetwork, Err: err}
	}

	if !res.IsSuccess() {
		slog.Error("inference backend returned error", "model", modelId, "status_code", res.StatusCode(), "body", res.String())
		return nil, &TransportError{Kind: FailureStatus, StatusCode: res.StatusCode(), Err: fmt.Errorf("%s", http.StatusText(res.StatusCode()))}
	}

	var parsed predictResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		slog.Error("error parsing response from inference backend", "model", modelId, "error", err)
		return nil, malformed("invalid response body: %w", err)
	}

	slog.Info("prediction request complete", "model", modelId, "gradcam", explain, "duration", time.Since(start), "processing_time", parsed.ProcessingTime)

	return &parsed, nil
}
