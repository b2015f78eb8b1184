package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix, name, want string
	}{
		{"eligibility_sync", "job.run", "eligibility_sync.job.run"},
		{"", " fetch attempt ", "fetch_attempt"},
		{"p", "a..b/c", "p.a.b_c"},
		{"p", "  ", ""},
	}
	for _, tc := range cases {
		if got := metricName(tc.prefix, tc.name); got != tc.want {
			t.Fatalf("metricName(%q, %q) = %q, want %q", tc.prefix, tc.name, got, tc.want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	got := formatTags(
		map[string]string{"env": "prod", "job": "global"},
		map[string]string{"job": "OSIS", " ": "dropped", "result": " error "},
	)
	want := "|#env:prod,job:OSIS,result:error"
	if got != want {
		t.Fatalf("formatTags = %q, want %q", got, want)
	}
	if formatTags(nil, nil) != "" {
		t.Fatal("expected empty tag string")
	}
}

func TestClientWritesLines(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{prefix: "eligibility_sync", conn: clientConn}
	if !client.Enabled() {
		t.Fatal("expected client to be enabled with an active connection")
	}

	lines := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := peerConn.Read(buf)
		lines <- string(buf[:n])
	}()

	client.Timing("job.duration", 1500*time.Millisecond, map[string]string{"job": "OSIS"})
	select {
	case line := <-lines:
		if line != "eligibility_sync.job.duration:1500|ms|#job:OSIS" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for metric line")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to be disabled after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	var c *Client
	c.Count("x", 1, nil)
	if c.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Count("job.run", 2, map[string]string{"job": "OSIS"})
	r.Gauge("scheduler.due", 3, nil)

	runs := r.Find("job.run")
	if len(runs) != 1 || runs[0].Value != 2 || runs[0].Tags["job"] != "OSIS" {
		t.Fatalf("unexpected samples %#v", runs)
	}
	if len(r.Samples()) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(r.Samples()))
	}
}
