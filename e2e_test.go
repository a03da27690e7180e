package wsforge_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/wsgorilla"
)

// startRouter spins up r on addr in the background and gives the listener a
// moment to bind before the caller dials it. Good enough for a test fixture;
// a production host would want Listen to report readiness explicitly.
func startRouter(ctx context.Context, r *wsforge.Router, addr string) {
	go r.Listen(ctx, addr)
	time.Sleep(50 * time.Millisecond)
}

func dialWS(addr, path string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s%s", addr, path), nil)
	return conn, err
}

var _ = Describe("end-to-end scenario: echo", func() {
	It("replies with the same text the client sent", func() {
		addr := "127.0.0.1:19101"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		r := wsforge.NewRouter().
			Default(wsforge.H1(wsforge.ExtractMessage, func(ctx *wsforge.Context, msg wsforge.Message) (wsforge.Response, error) {
				return wsforge.MessageResponse(msg), nil
			})).
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		conn, err := dialWS(addr, "/")
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Expect(conn.WriteMessage(websocket.TextMessage, []byte("hello"))).To(Succeed())

		_, data, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("hello"))
	})
})

var _ = Describe("end-to-end scenario: broadcast except sender", func() {
	It("delivers to the other connection but not the sender", func() {
		addr := "127.0.0.1:19102"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		r := wsforge.NewRouter().
			Default(wsforge.H2(wsforge.ExtractMessage, wsforge.ExtractConnection, func(ctx *wsforge.Context, msg wsforge.Message, conn wsforge.Connection) (wsforge.Response, error) {
				r := ctx.State
				registry, _ := wsforge.GetState[*wsforge.ConnectionRegistry](r)
				registry.BroadcastExcept(conn.ID(), msg)
				return wsforge.NoResponse(), nil
			})).
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		connA, err := dialWS(addr, "/")
		Expect(err).NotTo(HaveOccurred())
		defer connA.Close()
		connB, err := dialWS(addr, "/")
		Expect(err).NotTo(HaveOccurred())
		defer connB.Close()

		time.Sleep(20 * time.Millisecond) // let both registrations land

		Expect(connA.WriteMessage(websocket.TextMessage, []byte("hi"))).To(Succeed())

		connB.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := connB.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("hi"))

		connA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, _, err = connA.ReadMessage()
		Expect(err).To(HaveOccurred(), "sender must not receive its own broadcast-except message")
	})
})

var _ = Describe("end-to-end scenario: route dispatch", func() {
	It("routes on the leading slash token and falls back to default otherwise", func() {
		addr := "127.0.0.1:19103"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		r := wsforge.NewRouter().
			Route("/chat", wsforge.H1(wsforge.ExtractMessage, func(ctx *wsforge.Context, msg wsforge.Message) (wsforge.Response, error) {
				text, _ := msg.Text()
				rest := text[len("/chat "):]
				return wsforge.TextResponse("chat:" + rest), nil
			})).
			Route("/stats", wsforge.H0(func(ctx *wsforge.Context) (wsforge.Response, error) {
				return wsforge.TextResponse("stats"), nil
			})).
			Default(wsforge.H0(func(ctx *wsforge.Context) (wsforge.Response, error) {
				return wsforge.TextResponse("other"), nil
			})).
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		conn, err := dialWS(addr, "/")
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		cases := []struct{ send, want string }{
			{"/chat hello world", "chat:hello world"},
			{"/unknown", "other"},
			{"no slash", "other"},
		}
		for _, c := range cases {
			Expect(conn.WriteMessage(websocket.TextMessage, []byte(c.send))).To(Succeed())
			_, data, err := conn.ReadMessage()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(c.want))
		}
	})
})

var _ = Describe("end-to-end scenario: hook ordering", func() {
	It("appends CONN then DISC in order for one connecting and closing client", func() {
		addr := "127.0.0.1:19104"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		var log []string

		r := wsforge.NewRouter().
			Default(wsforge.H0(func(ctx *wsforge.Context) (wsforge.Response, error) { return wsforge.NoResponse(), nil })).
			OnConnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
				mu.Lock()
				log = append(log, "CONN:"+string(id))
				mu.Unlock()
			}).
			OnDisconnect(func(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
				mu.Lock()
				log = append(log, "DISC:"+string(id))
				mu.Unlock()
			}).
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		conn, err := dialWS(addr, "/")
		Expect(err).NotTo(HaveOccurred())
		conn.Close()

		Eventually(func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), log...)
		}, 2*time.Second, 20*time.Millisecond).Should(HaveLen(2))

		mu.Lock()
		defer mu.Unlock()
		Expect(log[0]).To(HavePrefix("CONN:"))
		Expect(log[1]).To(HavePrefix("DISC:"))
	})
})

var _ = Describe("end-to-end scenario: static file", func() {
	It("serves the index file with the expected headers and body", func() {
		addr := "127.0.0.1:19105"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		root := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>ok</h1>"), 0o644)).To(Succeed())

		r := wsforge.NewRouter().
			ServeStatic(root, "").
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		status, headers, body := rawHTTPGet(addr, "/")
		Expect(status).To(Equal(200))
		Expect(headers["Content-Type"]).To(Equal("text/html"))
		Expect(headers["Content-Length"]).To(Equal("11"))
		Expect(body).To(Equal("<h1>ok</h1>"))
	})
})

var _ = Describe("end-to-end scenario: traversal reject", func() {
	It("returns 404 for a path escaping the static root", func() {
		addr := "127.0.0.1:19106"
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		root := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>ok</h1>"), 0o644)).To(Succeed())

		r := wsforge.NewRouter().
			ServeStatic(root, "").
			WithUpgrader(wsgorilla.New(wsgorilla.Config{}))
		startRouter(ctx, r, addr)

		status, _, _ := rawHTTPGet(addr, "/../etc/passwd")
		Expect(status).To(Equal(404))
	})
})

// rawHTTPGet issues a bare single-request GET over a plain TCP connection,
// since the core listener doesn't speak keep-alive and a stdlib http.Client
// would retry/reuse in ways that don't match spec.md §6's wire format.
func rawHTTPGet(addr, path string) (status int, headers map[string]string, body string) {
	conn, err := net.Dial("tcp", addr)
	Expect(err).NotTo(HaveOccurred())
	defer conn.Close()

	fmt.Fprintf(conn, "GET %s HTTP/1.1\r\n\r\n", path)

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	Expect(err).NotTo(HaveOccurred())
	fmt.Sscanf(statusLine, "HTTP/1.1 %d", &status)

	headers = make(map[string]string)
	for {
		line, err := reader.ReadString('\n')
		Expect(err).NotTo(HaveOccurred())
		if line == "\r\n" {
			break
		}
		var key, value string
		if idx := indexByte(line, ':'); idx >= 0 {
			key = line[:idx]
			value = trimSpace(line[idx+1:])
			headers[key] = value
		}
	}

	bodyBytes := make([]byte, 0)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		bodyBytes = append(bodyBytes, buf[:n]...)
		if err != nil {
			break
		}
	}
	return status, headers, string(bodyBytes)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r' || s[end-1] == '\n') {
		end--
	}
	return s[start:end]
}
