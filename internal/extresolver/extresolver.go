// Package extresolver implements the optional external-resolver channel
// (spec §4.5): a long-lived child process addressed over a line-delimited
// JSON request/response protocol, consulted by the Flat resolver before it
// falls back to its built-in logic.
package extresolver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"modcheck/internal/fileid"
	"modcheck/internal/rerr"
)

// Client owns the child process and its two pipes. It is started lazily on
// first use and never restarted; both directions of the wire protocol are
// serialized under a single mutex so concurrent callers never interleave
// a write with another goroutine's read.
type Client struct {
	binary string

	mu      sync.Mutex
	started bool
	startErr error
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	reader  *bufio.Reader
}

// New returns a Client bound to the given external resolver binary. The
// process is not started until the first Resolve call.
func New(binary string) *Client {
	return &Client{binary: binary}
}

// ensureStarted lazily launches the child process. Close-on-exec is the
// default for pipes created by os/exec, so the parent's ends of the pipes
// never leak into unrelated forks.
func (c *Client) ensureStarted() error {
	if c.started {
		return c.startErr
	}
	c.started = true

	cmd := exec.Command(c.binary)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.startErr = fmt.Errorf("module resolver stdin pipe: %w", err)
		return c.startErr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.startErr = fmt.Errorf("module resolver stdout pipe: %w", err)
		return c.startErr
	}
	if err := cmd.Start(); err != nil {
		c.startErr = fmt.Errorf("module resolver start: %w", err)
		return c.startErr
	}

	c.cmd = cmd
	c.stdin = stdin
	c.reader = bufio.NewReader(stdout)
	return nil
}

// wireResponse mirrors the two-element [error, resolution] response shape,
// or the bare null "no opinion" response.
type wireResponse struct {
	hasOpinion bool
	failed     bool
	resolution *string
}

func decodeResponse(line []byte) (wireResponse, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return wireResponse{}, fmt.Errorf("malformed response: %w", err)
	}
	if string(raw) == "null" {
		return wireResponse{hasOpinion: false}, nil
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return wireResponse{}, fmt.Errorf("malformed response shape: %s", string(line))
	}
	if string(pair[0]) != "null" {
		// error is non-null: the result is discarded, fall through to the
		// built-in resolver same as a "no opinion" response.
		return wireResponse{hasOpinion: false, failed: true}, nil
	}
	if string(pair[1]) == "null" {
		return wireResponse{hasOpinion: true, resolution: nil}, nil
	}
	var resolution string
	if err := json.Unmarshal(pair[1], &resolution); err != nil {
		return wireResponse{}, fmt.Errorf("malformed resolution string: %w", err)
	}
	return wireResponse{hasOpinion: true, resolution: &resolution}, nil
}

// Resolve sends one request line and reads one response line, holding the
// channel lock across write+flush+readline so interleaved concurrent
// callers cannot corrupt the protocol.
func (c *Client) Resolve(reference string, importer fileid.FileKey) (resolved string, hasOpinion bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStarted(); err != nil {
		return "", false, &rerr.ModuleResolverFatal{Text: err.Error()}
	}

	req, err := json.Marshal([2]string{reference, importer.String()})
	if err != nil {
		return "", false, &rerr.ModuleResolverFatal{Text: err.Error()}
	}
	req = append(req, '\n')
	if _, err := c.stdin.Write(req); err != nil {
		return "", false, &rerr.ModuleResolverFatal{Text: err.Error()}
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return "", false, &rerr.ModuleResolverFatal{Text: err.Error()}
	}

	resp, decodeErr := decodeResponse(trimNewline(line))
	if decodeErr != nil {
		return "", false, &rerr.InvalidResolution{Text: decodeErr.Error()}
	}
	if !resp.hasOpinion || resp.resolution == nil {
		return "", false, nil
	}
	return *resp.resolution, true, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

// Close terminates the child process, if one was started.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	_ = c.stdin.Close()
	return c.cmd.Wait()
}
