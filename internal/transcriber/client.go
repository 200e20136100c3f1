package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Segment is one speaker turn in a transcript.
type Segment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Result is the speech API's transcription of one audio file.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Client submits audio references to the external speech-to-text API. The
// provider is opaque: one request in, one transcript out.
type Client interface {
	Transcribe(ctx context.Context, audioRef string, languageHint string) (*Result, error)
}

type HTTPClient struct {
	http    *resty.Client
	baseURL string
	apiKey  string
}

var _ Client = (*HTTPClient)(nil)

func NewClient(baseURL string, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http:    resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type transcribeRequest struct {
	AudioRef string `json:"audio_ref"`
	Language string `json:"language,omitempty"`
}

func (c *HTTPClient) Transcribe(ctx context.Context, audioRef string, languageHint string) (*Result, error) {
	var result Result

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(transcribeRequest{AudioRef: audioRef, Language: languageHint}).
		SetResult(&result)
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := req.Post(c.baseURL + "/v1/transcribe")
	if err != nil {
		return nil, fmt.Errorf("transcribe request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("transcribe request: %s; body: %s", resp.Status(), resp.String())
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("transcribe response is empty")
	}

	return &result, nil
}
