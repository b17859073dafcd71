package server

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

const (
	// Buffer size for streaming (64KB)
	streamBufferSize = 64 * 1024
)

// streamAudio streams an audio file with caching headers and single-range
// support so clients can seek
func (ms *MusicServer) streamAudio(w http.ResponseWriter, r *http.Request, filePath string, stat os.FileInfo) error {
	fileSize := stat.Size()
	etag := fmt.Sprintf(`"%d-%d"`, stat.ModTime().Unix(), fileSize)

	// Set caching headers
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", etag)

	// Check if client has cached version
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	// Set streaming headers
	w.Header().Set("Content-Type", ms.extractor.GetContentType(filePath))
	w.Header().Set("Accept-Ranges", "bytes")

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		return ms.handleRangeRequest(w, file, fileSize, rangeHeader)
	}

	// Stream entire file with buffering
	w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
	if r.Method == http.MethodHead {
		return nil
	}

	buffer := make([]byte, streamBufferSize)
	if _, err := io.CopyBuffer(w, bufio.NewReaderSize(file, streamBufferSize), buffer); err != nil {
		return fmt.Errorf("error streaming file: %w", err)
	}
	return nil
}

// handleRangeRequest serves a single byte range such as "bytes=0-1023",
// "bytes=1024-" or "bytes=-500"
func (ms *MusicServer) handleRangeRequest(w http.ResponseWriter, file *os.File, fileSize int64, rangeHeader string) error {
	start, end, ok := parseRange(rangeHeader, fileSize)
	if !ok {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking file: %w", err)
	}

	// Set partial content headers
	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", strconv.FormatInt(contentLength, 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.CopyN(w, file, contentLength); err != nil {
		return fmt.Errorf("error streaming range: %w", err)
	}
	return nil
}

// parseRange resolves a single-range header against fileSize
func parseRange(header string, fileSize int64) (start, end int64, ok bool) {
	ranges, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(ranges, ",") || fileSize == 0 {
		return 0, 0, false
	}
	first, last, found := strings.Cut(strings.TrimSpace(ranges), "-")
	if !found {
		return 0, 0, false
	}

	if first == "" {
		// suffix range: the last n bytes
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > fileSize {
			n = fileSize
		}
		return fileSize - n, fileSize - 1, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= fileSize {
		return 0, 0, false
	}
	end = fileSize - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= fileSize {
			end = fileSize - 1
		}
	}
	return start, end, true
}
