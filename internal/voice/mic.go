package voice

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"aria/internal/logging"
)

const (
	sampleRate = 16000
	frameSize  = 320 // 20 ms
	// pauseThreshold is how much trailing silence ends an utterance.
	pauseThreshold = time.Second
	// calibration listens this long to ambient noise before recording.
	calibration = 500 * time.Millisecond
)

// Transcriber converts captured PCM into text, typically by calling an
// external recognition service.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32, language string) (string, error)
}

// Mic captures audio from a portaudio input device and hands it to a
// Transcriber. The energy threshold is re-calibrated against ambient noise
// at the start of every Listen.
type Mic struct {
	transcriber Transcriber
	language    string
	deviceIndex int // -1 selects the default input device
	logger      logging.Logger
	threshold   float64
}

// NewMic initializes portaudio and returns a Mic bound to the device at
// deviceIndex (-1 for the default input).
func NewMic(transcriber Transcriber, language string, deviceIndex int, logger logging.Logger) (*Mic, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	return &Mic{
		transcriber: transcriber,
		language:    language,
		deviceIndex: deviceIndex,
		logger:      logging.OrNop(logger),
		threshold:   0.015,
	}, nil
}

// Close releases the audio backend.
func (m *Mic) Close() {
	portaudio.Terminate()
}

// InputDevices lists the names of available input devices, indexed by
// position, for the microphone picker.
func InputDevices() ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing audio devices: %w", err)
	}
	var names []string
	for _, device := range devices {
		if device.MaxInputChannels > 0 {
			names = append(names, device.Name)
		}
	}
	return names, nil
}

// Listen records until the speaker pauses for pauseThreshold (or timeout
// elapses with nothing heard) and returns the recognized text.
func (m *Mic) Listen(ctx context.Context, timeout time.Duration) (string, error) {
	pcm, err := m.record(ctx, timeout)
	if err != nil {
		return "", err
	}
	if len(pcm) == 0 {
		return "", ErrSilenceTimeout
	}
	text, err := m.transcriber.Transcribe(ctx, pcm, m.language)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}
	if text == "" {
		return "", ErrRecognitionFailed
	}
	return text, nil
}

func (m *Mic) record(ctx context.Context, timeout time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)
	stream, err := m.openStream(buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	m.calibrate(stream, buf)

	frameDur := time.Duration(frameSize) * time.Second / sampleRate
	deadline := time.Now().Add(timeout)
	out := make([]float32, 0, sampleRate*3)
	var (
		speaking bool
		silent   time.Duration
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			if speaking {
				return out, nil
			}
			return nil, ErrSilenceTimeout
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}
		if frameRMS(buf) > m.threshold {
			speaking = true
			silent = 0
			out = append(out, buf...)
			continue
		}
		if !speaking {
			continue
		}
		silent += frameDur
		if silent >= pauseThreshold {
			return out, nil
		}
		out = append(out, buf...)
	}
}

func (m *Mic) openStream(buf []float32) (*portaudio.Stream, error) {
	if m.deviceIndex < 0 {
		stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
		if err != nil {
			return nil, fmt.Errorf("opening default stream: %w", err)
		}
		return stream, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing audio devices: %w", err)
	}
	var inputs []*portaudio.DeviceInfo
	for _, device := range devices {
		if device.MaxInputChannels > 0 {
			inputs = append(inputs, device)
		}
	}
	if m.deviceIndex >= len(inputs) {
		return nil, fmt.Errorf("input device index %d out of range", m.deviceIndex)
	}
	params := portaudio.LowLatencyParameters(inputs[m.deviceIndex], nil)
	params.Input.Channels = 1
	params.SampleRate = sampleRate
	params.FramesPerBuffer = len(buf)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	return stream, nil
}

// calibrate samples ambient noise and sets the energy threshold above it.
func (m *Mic) calibrate(stream *portaudio.Stream, buf []float32) {
	frames := int(calibration / (time.Duration(frameSize) * time.Second / sampleRate))
	var peak float64
	for i := 0; i < frames; i++ {
		if err := stream.Read(); err != nil {
			return
		}
		if rms := frameRMS(buf); rms > peak {
			peak = rms
		}
	}
	if threshold := peak * 1.5; threshold > m.threshold {
		m.threshold = threshold
		m.logger.Debug("energy threshold calibrated to %.4f", threshold)
	}
}

func frameRMS(frame []float32) float64 {
	var sum float64
	for _, sample := range frame {
		sum += float64(sample * sample)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
