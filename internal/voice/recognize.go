package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"aria/internal/apierr"
	"aria/internal/logging"
)

// DefaultRecognizerURL is the speech-recognition endpoint used when none is
// configured.
const DefaultRecognizerURL = "http://www.google.com/speech-api/v2/recognize"

// HTTPTranscriber sends captured PCM to an external recognition service and
// returns the best transcript.
type HTTPTranscriber struct {
	http    *http.Client
	baseURL string
	key     string
	logger  logging.Logger
}

// NewHTTPTranscriber builds a transcriber against baseURL. An empty baseURL
// selects DefaultRecognizerURL.
func NewHTTPTranscriber(client *http.Client, baseURL, key string, logger logging.Logger) *HTTPTranscriber {
	if baseURL == "" {
		baseURL = DefaultRecognizerURL
	}
	return &HTTPTranscriber{
		http:    client,
		baseURL: baseURL,
		key:     key,
		logger:  logging.OrNop(logger),
	}
}

type recognitionResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternative"`
	} `json:"result"`
}

// Transcribe uploads pcm as a WAV body and returns the top alternative.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, pcm []float32, language string) (string, error) {
	query := url.Values{
		"client": {"aria"},
		"lang":   {language},
	}
	if t.key != "" {
		query.Set("key", t.key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"?"+query.Encode(), bytes.NewReader(encodeWAV(pcm)))
	if err != nil {
		return "", fmt.Errorf("building recognition request: %w", err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d", sampleRate))

	resp, err := t.http.Do(req)
	if err != nil {
		return "", apierr.NewTransport("speech", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apierr.NewTransport("speech", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	// The service streams one JSON document per line; the transcript lives
	// in the first non-empty result.
	decoder := json.NewDecoder(resp.Body)
	for decoder.More() {
		var parsed recognitionResponse
		if err := decoder.Decode(&parsed); err != nil {
			return "", fmt.Errorf("decoding recognition response: %w", err)
		}
		for _, result := range parsed.Result {
			if len(result.Alternative) > 0 {
				transcript := result.Alternative[0].Transcript
				t.logger.Debug("recognized %q", transcript)
				return transcript, nil
			}
		}
	}
	return "", nil
}

// encodeWAV wraps float32 PCM as 16-bit mono little-endian WAV.
func encodeWAV(pcm []float32) []byte {
	dataSize := len(pcm) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, sample := range pcm {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		binary.Write(buf, binary.LittleEndian, int16(sample*32767))
	}
	return buf.Bytes()
}
