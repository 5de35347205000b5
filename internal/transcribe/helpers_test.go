package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/logbook-ai/logbook/internal/model"
)

// writeWAV writes a short 16-bit PCM tone with the given channel count.
func writeWAV(t *testing.T, dir, name string, channels int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	const sampleRate = 16000
	enc := wav.NewEncoder(f, sampleRate, 16, channels, wavFormatPCM)
	data := make([]int, sampleRate/10*channels)
	for i := range data {
		data[i] = (i % 64) * 256
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

// stepClock returns start on the first call and start+step on every later
// call, so any late read of the clock is visible.
type stepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls == 1 {
		return c.start
	}
	return c.start.Add(c.step)
}

type fakeSTT struct {
	text  string
	err   error
	delay time.Duration
	paths []string
}

func (f *fakeSTT) Transcribe(_ context.Context, path string) (string, error) {
	time.Sleep(f.delay)
	f.paths = append(f.paths, path)
	return f.text, f.err
}

// fakeBackend records requests and replies with a fixed text.
type fakeBackend struct {
	local    bool
	name     string
	reply    string
	err      error
	delay    time.Duration
	requests *[]sentRequest
}

type sentRequest struct {
	model string
	req   *model.Request
}

func newFakeBackend(local bool, reply string) *fakeBackend {
	return &fakeBackend{local: local, name: "chat-model", reply: reply, requests: &[]sentRequest{}}
}

func (f *fakeBackend) Send(_ context.Context, req *model.Request) (*model.Response, error) {
	time.Sleep(f.delay)
	*f.requests = append(*f.requests, sentRequest{model: f.name, req: req})
	if f.err != nil {
		return nil, f.err
	}
	return &model.Response{Text: f.reply, Model: f.name}, nil
}

func (f *fakeBackend) Name() string  { return f.name }
func (f *fakeBackend) IsLocal() bool { return f.local }

func (f *fakeBackend) WithModel(name string) model.Backend {
	cp := *f
	cp.name = name
	return &cp
}
