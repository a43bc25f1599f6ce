package Inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPPredictor calls an external landmark detection service. The service
// takes the image as multipart field "file" on POST /predict and answers
// {"landmarks":[{"name","x","y"}], "model_name", "model_version"}.
type HTTPPredictor struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPPredictor(baseURL, token string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPPredictor) Name() string {
	return "http"
}

type errorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, image []byte, filename string) (Prediction, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Prediction{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return Prediction{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/predict", &body)
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	start := time.Now()
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("predictor request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("read predictor response: %w", err)
	}
	log.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Str("file", filename).Msg("predictor responded")

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && (e.Detail != "" || e.Error != "") {
			return Prediction{}, fmt.Errorf("predictor status %d: %s%s", resp.StatusCode, e.Detail, e.Error)
		}
		return Prediction{}, fmt.Errorf("predictor status %d", resp.StatusCode)
	}

	var out Prediction
	if err := json.Unmarshal(respBody, &out); err != nil {
		return Prediction{}, fmt.Errorf("decode predictor response: %w", err)
	}
	if len(out.Landmarks) == 0 {
		return Prediction{}, errors.New("predictor returned no landmarks")
	}
	if out.ModelName == "" {
		out.ModelName = "ceph_landmark_model"
	}
	out.Raw = respBody
	return out, nil
}
