package classifier

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// detectorServer answers every binary JPEG with reply, after checking it decodes.
func detectorServer(t *testing.T, reply func(n int) string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for n := 0; ; n++ {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				t.Errorf("message type = %d, want binary", mt)
			}
			if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
				t.Errorf("frame is not a JPEG: %v", err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply(n))); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestRemoteClassify(t *testing.T) {
	server := detectorServer(t, func(n int) string {
		if n == 0 {
			return `{"faces":1,"emotion":{"sad":70,"neutral":30}}`
		}
		return `{"faces":0,"emotion":{}}`
	})
	defer server.Close()

	r, err := NewRemote(WithBaseURL(wsURL(server)), WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	scores, err := r.Classify(ctx, testImage())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if scores["sad"] != 70 {
		t.Errorf("scores = %v", scores)
	}

	// Second request reuses the connection and gets "no face".
	if _, err := r.Classify(ctx, testImage()); !errors.Is(err, ErrNoFace) {
		t.Errorf("second Classify error = %v, want ErrNoFace", err)
	}
}

func TestRemoteReplyWithoutFaceCount(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantHappy float64
		wantNoFce bool
	}{
		{"emotion only", `{"emotion":{"happy":80,"sad":10,"neutral":10,"angry":0,"surprise":0}}`, 80, false},
		{"empty emotion", `{"emotion":{}}`, 0, true},
		{"no emotion field", `{}`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := detectorServer(t, func(int) string { return tc.reply })
			defer server.Close()

			r, _ := NewRemote(WithBaseURL(wsURL(server)), WithTimeout(2*time.Second))
			defer r.Close()

			scores, err := r.Classify(context.Background(), testImage())
			if got := errors.Is(err, ErrNoFace); got != tc.wantNoFce {
				t.Fatalf("errors.Is(ErrNoFace) = %v, want %v (err: %v)", got, tc.wantNoFce, err)
			}
			if !tc.wantNoFce && scores["happy"] != tc.wantHappy {
				t.Errorf("scores = %v", scores)
			}
		})
	}
}

func TestRemoteDetectorError(t *testing.T) {
	server := detectorServer(t, func(int) string { return `{"error":"model not loaded"}` })
	defer server.Close()

	r, _ := NewRemote(WithBaseURL(wsURL(server)))
	defer r.Close()

	_, err := r.Classify(context.Background(), testImage())
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("Classify error = %v", err)
	}
}

func TestRemoteUnavailable(t *testing.T) {
	r, _ := NewRemote(WithBaseURL("ws://127.0.0.1:1/ws"), WithTimeout(500*time.Millisecond))
	defer r.Close()

	_, err := r.Classify(context.Background(), testImage())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Classify error = %v, want ErrUnavailable", err)
	}
	if err := r.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Health error = %v, want ErrUnavailable", err)
	}
}

func TestRemoteClosed(t *testing.T) {
	r, _ := NewRemote(WithBaseURL("ws://127.0.0.1:1/ws"))
	r.Close()

	if _, err := r.Classify(context.Background(), testImage()); !errors.Is(err, ErrClosed) {
		t.Errorf("Classify after Close = %v, want ErrClosed", err)
	}
}

func TestNewRemoteRequiresURL(t *testing.T) {
	if _, err := NewRemote(); err == nil {
		t.Error("expected error without URL")
	}
}
