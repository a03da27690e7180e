package wsforge

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wsforge-go/wsforge/logger"
)

// mimeByExtension is the fixed extension table from spec.md §6. Anything
// absent defaults to application/octet-stream.
var mimeByExtension = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".wasm": "application/wasm",
}

func mimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeByExtension[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// serveStatic implements the HTTP file path of spec.md §4.11: parse the
// request line, resolve and canonicalize the target under staticRoot, and
// reply 200/404/500 with no keep-alive.
func (r *Router) serveStatic(reader *bufio.Reader, conn net.Conn, remoteAddr string) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(peekBudget))

	requestLine, err := reader.ReadString('\n')
	if err != nil {
		writeHTTPError(conn, 500, "Internal Server Error")
		return
	}

	method, rawPath, ok := parseRequestLine(requestLine)
	if !ok || (method != "GET" && method != "HEAD") {
		writeHTTPError(conn, 404, "Not Found")
		return
	}

	decodedPath, err := url.PathUnescape(rawPath)
	if err != nil {
		writeHTTPError(conn, 404, "Not Found")
		return
	}

	body, mimeType, status, err := r.resolveStaticFile(decodedPath, remoteAddr)
	if err != nil || status != 200 {
		if status == 0 {
			status = 404
		}
		writeHTTPError(conn, status, httpReason(status))
		return
	}

	writeHTTPResponse(conn, 200, mimeType, body, method == "HEAD")
}

// resolveStaticFile implements the path-traversal guard and index fallback
// from spec.md §4.11/§6.
func (r *Router) resolveStaticFile(urlPath string, remoteAddr string) ([]byte, string, int, error) {
	canonicalRoot, err := filepath.Abs(r.staticRoot)
	if err != nil {
		return nil, "", 500, err
	}

	relative := strings.TrimPrefix(filepath.Clean("/"+urlPath), "/")
	target := filepath.Join(canonicalRoot, relative)

	canonicalTarget, err := filepath.Abs(target)
	if err != nil || !isUnderRoot(canonicalTarget, canonicalRoot) {
		logger.StaticFile().Warn().Str("remote_addr", remoteAddr).Str("path", urlPath).Msg("rejected path outside static root")
		return nil, "", 404, fmt.Errorf("outside root")
	}

	info, err := os.Stat(canonicalTarget)
	if err == nil && info.IsDir() {
		canonicalTarget = filepath.Join(canonicalTarget, r.staticIndex)
		if !isUnderRoot(canonicalTarget, canonicalRoot) {
			return nil, "", 404, fmt.Errorf("outside root")
		}
	}

	body, err := os.ReadFile(canonicalTarget)
	if err != nil {
		return nil, "", 404, err
	}
	return body, mimeFor(canonicalTarget), 200, nil
}

func isUnderRoot(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func parseRequestLine(line string) (method, path string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

func httpReason(status int) string {
	switch status {
	case 200:
		return "OK"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

func writeHTTPError(conn net.Conn, status int, reason string) {
	body := []byte("<html><body><h1>" + reason + "</h1></body></html>")
	writeHTTPResponse(conn, status, "text/html", body, false)
}

func writeHTTPResponse(conn net.Conn, status int, mimeType string, body []byte, headOnly bool) {
	header := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\nConnection: close\r\n\r\n",
		status, httpReason(status), mimeType, len(body),
	)
	conn.Write([]byte(header))
	if !headOnly {
		conn.Write(body)
	}
}
